// Package notes implements the forecasting agent's three note registers:
// structured, searchable research notes; write-only per-session
// meta-reflections; and long-form markdown reports readable by later
// sessions. All three persist as plain files under a configurable base
// directory so a retrodict run can be scoped to an isolated temp directory.
package notes

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
)

// Type classifies a structured note for filtering and search.
type Type string

const (
	TypeResearch  Type = "research"
	TypeFinding   Type = "finding"
	TypeEstimate  Type = "estimate"
	TypeReasoning Type = "reasoning"
	TypeSource    Type = "source"
)

func validType(t Type) bool {
	switch t {
	case TypeResearch, TypeFinding, TypeEstimate, TypeReasoning, TypeSource:
		return true
	default:
		return false
	}
}

// Note is a structured, searchable record of something worth remembering
// during a forecast run.
type Note struct {
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	Topic      string    `json:"topic"`
	Summary    string    `json:"summary"`
	Content    string    `json:"content"`
	Sources    []string  `json:"sources,omitempty"`
	Confidence *float64  `json:"confidence,omitempty"`
	QuestionID *int64    `json:"question_id,omitempty"`
	ReportPath string    `json:"report_path,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Summary is the lightweight listing representation: everything but the
// full content, which is only returned by an explicit Read.
type Summary struct {
	ID         string `json:"id"`
	Type       Type   `json:"type"`
	Topic      string `json:"topic"`
	Summary    string `json:"summary"`
	QuestionID *int64 `json:"question_id,omitempty"`
	HasReport  bool   `json:"has_report"`
	MatchCount int    `json:"match_count,omitempty"`
}

func toSummary(n Note) Summary {
	return Summary{
		ID:         n.ID,
		Type:       n.Type,
		Topic:      n.Topic,
		Summary:    n.Summary,
		QuestionID: n.QuestionID,
		HasReport:  n.ReportPath != "",
	}
}

// Store manages the three on-disk note registers rooted at BasePath:
// BasePath/structured for Note JSON files, BasePath/sessions for
// meta-reflections, and BasePath/research for long-form reports.
type Store struct {
	mu       sync.Mutex
	BasePath string
}

// NewStore creates a Store rooted at basePath, creating it if necessary.
func NewStore(basePath string) (*Store, error) {
	if basePath == "" {
		basePath = "./notes"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create notes base dir: %w", err)
	}
	return &Store{BasePath: basePath}, nil
}

func (s *Store) structuredDir() string {
	return filepath.Join(s.BasePath, "structured")
}

func (s *Store) sessionsDir() string {
	return filepath.Join(s.BasePath, "sessions")
}

func (s *Store) researchDir() string {
	return filepath.Join(s.BasePath, "research")
}

func newNoteID() string {
	buf := make([]byte, 6)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// WriteInput is the payload for Write: a new structured note.
type WriteInput struct {
	Type       Type
	Topic      string
	Summary    string
	Content    string
	Sources    []string
	Confidence *float64
	QuestionID *int64
	ReportPath string
}

// Write persists a new structured, searchable note.
func (s *Store) Write(ctx context.Context, in WriteInput) (*Note, error) {
	if in.Topic == "" || in.Summary == "" || in.Content == "" {
		return nil, fmt.Errorf("write requires topic, summary, and content")
	}
	if !validType(in.Type) {
		return nil, fmt.Errorf("invalid note type %q", in.Type)
	}

	note := Note{
		ID:         newNoteID(),
		Type:       in.Type,
		Topic:      in.Topic,
		Summary:    in.Summary,
		Content:    in.Content,
		Sources:    in.Sources,
		Confidence: in.Confidence,
		QuestionID: in.QuestionID,
		ReportPath: in.ReportPath,
		CreatedAt:  time.Now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.structuredDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create structured notes dir: %w", err)
	}

	encoded, err := json.MarshalIndent(note, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode note: %w", err)
	}

	path := filepath.Join(dir, note.ID+".json")
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return nil, fmt.Errorf("write note %s: %w", note.ID, err)
	}
	return &note, nil
}

// ListFilter restricts List/Search results.
type ListFilter struct {
	TypeFilter Type
	QuestionID *int64
}

func (s *Store) loadAll() ([]Note, error) {
	dir := s.structuredDir()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read notes dir: %w", err)
	}

	notes := make([]Note, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			continue
		}
		var n Note
		if err := json.Unmarshal(data, &n); err != nil {
			continue
		}
		notes = append(notes, n)
	}
	return notes, nil
}

// List returns note summaries matching filter, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Summary, error) {
	notes, err := s.loadAll()
	if err != nil {
		return nil, err
	}

	filtered := make([]Note, 0, len(notes))
	for _, n := range notes {
		if filter.TypeFilter != "" && n.Type != filter.TypeFilter {
			continue
		}
		if filter.QuestionID != nil && (n.QuestionID == nil || *n.QuestionID != *filter.QuestionID) {
			continue
		}
		filtered = append(filtered, n)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.After(filtered[j].CreatedAt)
	})

	summaries := make([]Summary, 0, len(filtered))
	for _, n := range filtered {
		summaries = append(summaries, toSummary(n))
	}
	return summaries, nil
}

// Search returns the top 20 note summaries whose topic, summary, or content
// match query (case-insensitive), ranked by match count.
func (s *Store) Search(ctx context.Context, query string, typeFilter Type) ([]Summary, error) {
	if query == "" {
		return nil, fmt.Errorf("search requires a query")
	}
	notes, err := s.loadAll()
	if err != nil {
		return nil, err
	}

	pattern := regexp.MustCompile("(?i)" + regexp.QuoteMeta(query))

	type scored struct {
		note  Note
		count int
	}
	var results []scored
	for _, n := range notes {
		if typeFilter != "" && n.Type != typeFilter {
			continue
		}
		haystack := n.Topic + " " + n.Summary + " " + n.Content
		count := len(pattern.FindAllStringIndex(haystack, -1))
		if count > 0 {
			results = append(results, scored{note: n, count: count})
		}
	}

	sort.Slice(results, func(i, j int) bool { return results[i].count > results[j].count })
	if len(results) > 20 {
		results = results[:20]
	}

	summaries := make([]Summary, 0, len(results))
	for _, r := range results {
		sm := toSummary(r.note)
		sm.MatchCount = r.count
		summaries = append(summaries, sm)
	}
	return summaries, nil
}

// Read returns the full note content for id.
func (s *Store) Read(ctx context.Context, id string) (*Note, error) {
	path := filepath.Join(s.structuredDir(), id+".json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("note not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("read note %s: %w", id, err)
	}
	var n Note
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("decode note %s: %w", id, err)
	}
	return &n, nil
}

// parseSessionID splits "<post_id>_<timestamp>" (or "sub_<timestamp>" for
// sub-forecasts) into its components for meta-reflection path scoping.
func parseSessionID(sessionID string) (postID, timestamp string) {
	if strings.HasPrefix(sessionID, "sub_") {
		return "0", strings.TrimPrefix(sessionID, "sub_")
	}
	parts := strings.SplitN(sessionID, "_", 2)
	if len(parts) == 2 {
		return parts[0], parts[1]
	}
	return sessionID, "unknown"
}

// WriteMeta persists a write-only meta-reflection for sessionID. Meta
// reflections are never read back within the same process, by design: a
// model reflecting on a past session could anchor on its own prior biases.
func (s *Store) WriteMeta(ctx context.Context, sessionID, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("write_meta requires non-empty content")
	}

	postID, timestamp := parseSessionID(sessionID)
	dir := filepath.Join(s.sessionsDir(), postID, timestamp)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create session dir: %w", err)
	}

	path := filepath.Join(dir, "meta.md")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write meta-reflection: %w", err)
	}
	return path, nil
}

var slugInvalid = regexp.MustCompile(`[^\w\s-]`)
var slugWhitespace = regexp.MustCompile(`[-\s]+`)

func slugify(text string, maxLength int) string {
	lower := strings.ToLower(text)
	stripped := slugInvalid.ReplaceAllString(lower, "")
	slug := strings.Trim(slugWhitespace.ReplaceAllString(stripped, "_"), "_")
	if len(slug) > maxLength {
		slug = slug[:maxLength]
	}
	return slug
}

// WriteReport persists a long-form markdown report for a question, readable
// by future sessions (unlike meta-reflections).
func (s *Store) WriteReport(ctx context.Context, postID int64, title, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("write_report requires non-empty content")
	}

	dir := filepath.Join(s.researchDir(), fmt.Sprintf("%d", postID))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create research dir: %w", err)
	}

	name := slugify(title, 50)
	if name == "" {
		name = "report"
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%d.md", name, time.Now().UTC().Unix()))

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
