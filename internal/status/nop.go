package status

import "context"

// Nop 在未配置 Redis 时使用，不记录任何内容
type Nop struct{}

func (Nop) Init(context.Context, *Record) error               { return nil }
func (Nop) UpdateProgress(context.Context, string, int) error { return nil }
func (Nop) Complete(context.Context, string) error            { return nil }
func (Nop) Fail(context.Context, string, string) error        { return nil }
func (Nop) MarkArchived(context.Context, string) error        { return nil }
func (Nop) Get(context.Context, string) (*Record, error)      { return nil, ErrNotFound }
func (Nop) List(context.Context) ([]Record, error)            { return []Record{}, nil }
