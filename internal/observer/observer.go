// internal/observer/observer.go
package observer

import "sync"

// Observer 观察者接口
type Observer interface {
	// Update 接收累计下载字节数和总字节数（未知时为 0）
	Update(downloaded, total int64)
}

// Observable 被观察者（主题）接口
type Observable interface {
	AddObserver(o Observer)
	Notify(downloaded, total int64)
}

// Subject 是 Observable 的通用实现，可嵌入到其他结构体中
type Subject struct {
	mu        sync.Mutex
	observers []Observer
}

// AddObserver 实现了 Observable 接口，用于添加观察者
func (s *Subject) AddObserver(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Notify 实现了 Observable 接口，用于通知所有观察者
func (s *Subject) Notify(downloaded, total int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, obs := range s.observers {
		obs.Update(downloaded, total)
	}
}

// Func 让普通函数可以作为观察者使用
type Func func(downloaded, total int64)

// Update 实现 Observer 接口
func (f Func) Update(downloaded, total int64) {
	f(downloaded, total)
}
