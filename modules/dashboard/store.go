package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"quel-shorts-studio/modules/common/credit"
	"quel-shorts-studio/modules/common/model"
)

var (
	ErrPostNotFound     = errors.New("post not found")
	ErrAlreadyPublished = errors.New("post already published")
)

// Publisher - 게시 이벤트를 외부로 전달 (Supabase 게시 로그)
type Publisher interface {
	CountPublications(ctx context.Context, postID string) (int, error)
	RecordPublication(ctx context.Context, post *model.Post) error
}

// ChangeFunc is called after the collection changes.
type ChangeFunc func(reason string, postID string)

// Store holds the generated posts, newest first. Posts live for the
// process lifetime only.
type Store struct {
	mu        sync.RWMutex
	posts     []*model.Post
	publisher Publisher
	onChange  []ChangeFunc
}

// NewStore - publisher는 nil 가능
func NewStore(publisher Publisher) *Store {
	return &Store{publisher: publisher}
}

// OnChange - 변경 알림 등록
func (s *Store) OnChange(fn ChangeFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = append(s.onChange, fn)
}

// Prepend - 새 게시물을 맨 앞에 추가
func (s *Store) Prepend(post *model.Post) {
	s.mu.Lock()
	s.posts = append([]*model.Post{post.Clone()}, s.posts...)
	count := len(s.posts)
	s.mu.Unlock()

	log.Printf("📥 [Dashboard] Post %s added (%d total)", post.ID, count)
	s.notify("created", post.ID)
}

// List - 최신순 복사본
func (s *Store) List() []*model.Post {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, p.Clone())
	}
	return out
}

func (s *Store) Get(id string) (*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.indexOf(id); i >= 0 {
		return s.posts[i].Clone(), nil
	}
	return nil, ErrPostNotFound
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	i := s.indexOf(id)
	if i < 0 {
		s.mu.Unlock()
		return ErrPostNotFound
	}
	s.posts = append(s.posts[:i], s.posts[i+1:]...)
	s.mu.Unlock()

	log.Printf("🗑️  [Dashboard] Post %s deleted", id)
	s.notify("deleted", id)
	return nil
}

// TotalSpent - 전체 게시물 비용 합계 (Total Burn)
func (s *Store) TotalSpent() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	costs := make([]float64, 0, len(s.posts))
	for _, p := range s.posts {
		costs = append(costs, p.EstimatedCost)
	}
	return credit.Sum(costs...)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.posts)
}

// Publish marks a scheduled post as published and forwards it to the
// publisher. The status only changes if the publisher accepts it. A post
// the publisher already has a record for is not recorded twice.
func (s *Store) Publish(ctx context.Context, id string) (*model.Post, error) {
	post, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if post.Status == model.StatusPublished {
		return nil, ErrAlreadyPublished
	}

	post.Status = model.StatusPublished
	if s.publisher != nil {
		existing, err := s.publisher.CountPublications(ctx, id)
		if err != nil {
			log.Printf("❌ [Dashboard] Publication lookup for %s failed: %v", id, err)
			return nil, fmt.Errorf("publish %s: %w", id, err)
		}
		if existing > 0 {
			log.Printf("⚠️  [Dashboard] Post %s already has %d publication record(s)", id, existing)
			if changed, _ := s.markPublished(id); changed {
				s.notify("published", id)
			}
			return nil, ErrAlreadyPublished
		}
		if err := s.publisher.RecordPublication(ctx, post); err != nil {
			log.Printf("❌ [Dashboard] Publish of %s failed: %v", id, err)
			return nil, fmt.Errorf("publish %s: %w", id, err)
		}
	}

	if _, err := s.markPublished(id); err != nil {
		return nil, err
	}

	log.Printf("🚀 [Dashboard] Post %s published to %s", id, post.Brief.Platform)
	s.notify("published", id)
	return post, nil
}

// markPublished reports whether the stored status changed.
func (s *Store) markPublished(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return false, ErrPostNotFound
	}
	if s.posts[i].Status == model.StatusPublished {
		return false, nil
	}
	s.posts[i].Status = model.StatusPublished
	return true, nil
}

func (s *Store) indexOf(id string) int {
	for i, p := range s.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) notify(reason, id string) {
	s.mu.RLock()
	fns := append([]ChangeFunc(nil), s.onChange...)
	s.mu.RUnlock()

	for _, fn := range fns {
		fn(reason, id)
	}
}
