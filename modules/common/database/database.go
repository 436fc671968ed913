package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/supabase-community/supabase-go"

	"quel-shorts-studio/modules/common/config"
	"quel-shorts-studio/modules/common/model"
)

const publicationsTable = "social_post_publications"

type Client struct {
	supabase *supabase.Client
}

// Publication - 게시 로그 레코드
type Publication struct {
	PostID        string  `json:"post_id"`
	Platform      string  `json:"platform"`
	Headline      string  `json:"headline"`
	Caption       string  `json:"caption"`
	Hashtags      string  `json:"hashtags"`
	FragmentCount int     `json:"fragment_count"`
	EstimatedCost float64 `json:"estimated_cost"`
	PublishedAt   string  `json:"published_at"`
}

// NewClient - Database 클라이언트 생성 (SUPABASE_URL 미설정 시 nil)
func NewClient(cfg *config.Config) *Client {
	if !cfg.SupabaseEnabled() {
		log.Printf("ℹ️  [Database] Supabase not configured, publication log disabled")
		return nil
	}

	supabaseClient, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, &supabase.ClientOptions{})
	if err != nil {
		log.Printf("❌ [Database] Failed to create Supabase client: %v", err)
		return nil
	}

	log.Printf("✅ [Database] Supabase publication log ready")
	return &Client{
		supabase: supabaseClient,
	}
}

// NewPublication - 게시물로부터 로그 레코드 생성
func NewPublication(post *model.Post, at time.Time) Publication {
	tags, _ := json.Marshal(post.Hashtags)
	return Publication{
		PostID:        post.ID,
		Platform:      string(post.Brief.Platform),
		Headline:      post.Headline,
		Caption:       post.Caption,
		Hashtags:      string(tags),
		FragmentCount: len(post.Fragments),
		EstimatedCost: post.EstimatedCost,
		PublishedAt:   at.UTC().Format(time.RFC3339),
	}
}

// RecordPublication - 게시 로그 insert
func (c *Client) RecordPublication(ctx context.Context, post *model.Post) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Printf("📝 [Database] Recording publication for post %s", post.ID)

	record := NewPublication(post, time.Now())
	_, _, err := c.supabase.From(publicationsTable).
		Insert(record, false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to insert publication: %w", err)
	}

	log.Printf("✅ [Database] Publication recorded: %s (%s)", post.ID, record.Platform)
	return nil
}

// CountPublications - 게시 로그 건수 조회
func (c *Client) CountPublications(ctx context.Context, postID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	var rows []Publication
	data, _, err := c.supabase.From(publicationsTable).
		Select("*", "exact", false).
		Eq("post_id", postID).
		Execute()
	if err != nil {
		return 0, fmt.Errorf("failed to query %s: %w", publicationsTable, err)
	}
	if err := json.Unmarshal(data, &rows); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}
	return len(rows), nil
}
