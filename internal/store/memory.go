// Package store holds the persistence layer. Memory is the in-process
// implementation; consumers depend on narrow interfaces so the store can be
// swapped for a database-backed one without touching the core.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/personachat/persona-platform/internal/apperrors"
	"github.com/personachat/persona-platform/internal/model"
)

// Memory is an in-memory store guarded by a single RWMutex. Message lists
// are append-only; creation order is insertion order.
type Memory struct {
	mu sync.RWMutex

	personas  map[string]*model.Persona
	groups    map[string]*model.PersonaGroup
	members   map[string][]string // group id -> persona ids
	threads   map[string]*model.Thread
	messages  map[string][]model.Message         // thread id -> ordered messages
	workplace map[string]*model.WorkplaceContext // user id -> context
	public    map[string]*model.PublicThread     // public id -> snapshot
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		personas:  make(map[string]*model.Persona),
		groups:    make(map[string]*model.PersonaGroup),
		members:   make(map[string][]string),
		threads:   make(map[string]*model.Thread),
		messages:  make(map[string][]model.Message),
		workplace: make(map[string]*model.WorkplaceContext),
		public:    make(map[string]*model.PublicThread),
	}
}

func newID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// CreatePersona stores a new persona.
func (s *Memory) CreatePersona(ctx context.Context, userID string, in model.PersonaInput) (*model.Persona, error) {
	now := time.Now()
	p := &model.Persona{
		ID:           newID(),
		UserID:       userID,
		Name:         in.Name,
		Title:        in.Title,
		Age:          in.Age,
		Industry:     in.Industry,
		Experience:   in.Experience,
		PainPoints:   in.PainPoints,
		Values:       in.Values,
		Personality:  in.Personality,
		SystemPrompt: in.SystemPrompt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	s.mu.Lock()
	s.personas[p.ID] = p
	s.mu.Unlock()

	return p, nil
}

// GetPersona retrieves a persona owned by the user. Soft-deleted personas
// are not returned.
func (s *Memory) GetPersona(ctx context.Context, userID, id string) (*model.Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.personas[id]
	if !ok || p.UserID != userID || p.IsDeleted {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "persona")
	}
	out := *p
	return &out, nil
}

// PersonaForSnapshot retrieves a persona regardless of its soft-delete
// state. Historical threads keep referring to deleted personas, and their
// snapshots still need the persona details.
func (s *Memory) PersonaForSnapshot(ctx context.Context, userID, id string) (*model.Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.personas[id]
	if !ok || p.UserID != userID {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "persona")
	}
	out := *p
	return &out, nil
}

// ListPersonas returns the user's personas, newest first.
func (s *Memory) ListPersonas(ctx context.Context, userID string) ([]model.Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Persona
	for _, p := range s.personas {
		if p.UserID == userID && !p.IsDeleted {
			out = append(out, *p)
		}
	}
	sortByCreatedDesc(out)
	return out, nil
}

// UpdatePersona applies an explicit edit to a persona.
func (s *Memory) UpdatePersona(ctx context.Context, userID, id string, in model.PersonaInput) (*model.Persona, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.personas[id]
	if !ok || p.UserID != userID || p.IsDeleted {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "persona")
	}

	p.Name = in.Name
	p.Title = in.Title
	p.Age = in.Age
	p.Industry = in.Industry
	p.Experience = in.Experience
	p.PainPoints = in.PainPoints
	p.Values = in.Values
	p.Personality = in.Personality
	if in.SystemPrompt != "" {
		p.SystemPrompt = in.SystemPrompt
	}
	p.UpdatedAt = time.Now()

	out := *p
	return &out, nil
}

// DeletePersona soft-deletes a persona. Historical threads keep referring
// to it.
func (s *Memory) DeletePersona(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.personas[id]
	if !ok || p.UserID != userID || p.IsDeleted {
		return apperrors.Wrap(apperrors.ErrNotFound, "persona")
	}
	p.IsDeleted = true
	p.UpdatedAt = time.Now()
	return nil
}

// CreateGroup stores a new persona group with its membership.
func (s *Memory) CreateGroup(ctx context.Context, userID string, req model.CreateGroupRequest) (*model.PersonaGroupWithMembers, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, pid := range req.PersonaIDs {
		p, ok := s.personas[pid]
		if !ok || p.UserID != userID || p.IsDeleted {
			return nil, apperrors.Wrapf(apperrors.ErrNotFound, "persona %s", pid)
		}
	}

	now := time.Now()
	g := &model.PersonaGroup{
		ID:          newID(),
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.groups[g.ID] = g
	s.members[g.ID] = append([]string(nil), req.PersonaIDs...)

	return s.groupWithMembersLocked(g), nil
}

// GetGroup retrieves a group with its members.
func (s *Memory) GetGroup(ctx context.Context, userID, id string) (*model.PersonaGroupWithMembers, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	g, ok := s.groups[id]
	if !ok || g.UserID != userID {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "group")
	}
	return s.groupWithMembersLocked(g), nil
}

// ListGroups returns the user's groups with members, newest first.
func (s *Memory) ListGroups(ctx context.Context, userID string) ([]model.PersonaGroupWithMembers, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.PersonaGroupWithMembers
	for _, g := range s.groups {
		if g.UserID == userID {
			out = append(out, *s.groupWithMembersLocked(g))
		}
	}
	return out, nil
}

// GroupRoster returns the member personas of a group. Soft-deleted members
// are excluded; they are no longer eligible speakers.
func (s *Memory) GroupRoster(ctx context.Context, groupID string) ([]model.Persona, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.groups[groupID]; !ok {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "group")
	}

	var roster []model.Persona
	for _, pid := range s.members[groupID] {
		if p, ok := s.personas[pid]; ok && !p.IsDeleted {
			roster = append(roster, *p)
		}
	}
	return roster, nil
}

func (s *Memory) groupWithMembersLocked(g *model.PersonaGroup) *model.PersonaGroupWithMembers {
	out := &model.PersonaGroupWithMembers{PersonaGroup: *g}
	for _, pid := range s.members[g.ID] {
		if p, ok := s.personas[pid]; ok && !p.IsDeleted {
			out.Members = append(out.Members, *p)
		}
	}
	return out
}

// CreateThread stores a new thread scoped to one persona or one group.
func (s *Memory) CreateThread(ctx context.Context, userID string, req model.CreateThreadRequest) (*model.Thread, error) {
	if (req.PersonaID == "") == (req.GroupID == "") {
		return nil, apperrors.New("thread must reference exactly one persona or group")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	t := &model.Thread{
		ID:        newID(),
		UserID:    userID,
		PersonaID: req.PersonaID,
		GroupID:   req.GroupID,
		Title:     req.Title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.threads[t.ID] = t

	out := *t
	return &out, nil
}

// GetThread retrieves a thread owned by the user.
func (s *Memory) GetThread(ctx context.Context, userID, id string) (*model.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.threads[id]
	if !ok || t.UserID != userID {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "thread")
	}
	out := *t
	return &out, nil
}

// ListThreads returns the user's threads, newest first.
func (s *Memory) ListThreads(ctx context.Context, userID string) ([]model.Thread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []model.Thread
	for _, t := range s.threads {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}

// UpdateThreadTitle renames a thread.
func (s *Memory) UpdateThreadTitle(ctx context.Context, threadID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[threadID]
	if !ok {
		return apperrors.Wrap(apperrors.ErrNotFound, "thread")
	}
	t.Title = title
	t.UpdatedAt = time.Now()
	return nil
}

// SetThreadPublicID records the public share identifier on a thread.
func (s *Memory) SetThreadPublicID(ctx context.Context, threadID, publicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.threads[threadID]
	if !ok {
		return apperrors.Wrap(apperrors.ErrNotFound, "thread")
	}
	t.PublicID = publicID
	t.UpdatedAt = time.Now()
	return nil
}

// InsertMessage appends a message to a thread and returns the stored copy
// with its server-assigned id and timestamp.
func (s *Memory) InsertMessage(ctx context.Context, threadID, sender, content string) (*model.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.threads[threadID]; !ok {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "thread")
	}

	msg := model.Message{
		ID:        newID(),
		ThreadID:  threadID,
		Sender:    sender,
		Content:   content,
		CreatedAt: time.Now(),
	}
	s.messages[threadID] = append(s.messages[threadID], msg)

	out := msg
	return &out, nil
}

// MessagesByThread returns a thread's messages in creation order.
func (s *Memory) MessagesByThread(ctx context.Context, threadID string) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.threads[threadID]; !ok {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "thread")
	}
	return append([]model.Message(nil), s.messages[threadID]...), nil
}

// WorkplaceContext returns the user's workplace context, or nil when none
// has been saved. Absence is not an error.
func (s *Memory) WorkplaceContext(ctx context.Context, userID string) (*model.WorkplaceContext, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	wc, ok := s.workplace[userID]
	if !ok {
		return nil, nil
	}
	out := *wc
	return &out, nil
}

// SaveWorkplaceContext creates or replaces the user's workplace context.
func (s *Memory) SaveWorkplaceContext(ctx context.Context, userID string, in model.WorkplaceContextInput) (*model.WorkplaceContext, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	wc, ok := s.workplace[userID]
	if !ok {
		wc = &model.WorkplaceContext{ID: newID(), UserID: userID, CreatedAt: now}
		s.workplace[userID] = wc
	}
	wc.CompanyName = in.CompanyName
	wc.ProductName = in.ProductName
	wc.Description = in.Description
	wc.Industry = in.Industry
	wc.TargetAudience = in.TargetAudience
	wc.UpdatedAt = now

	out := *wc
	return &out, nil
}

// PublishThread stores a public snapshot of a thread.
func (s *Memory) PublishThread(ctx context.Context, pt *model.PublicThread) (*model.PublicThread, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *pt
	stored.ID = newID()
	stored.CreatedAt = time.Now()
	s.public[stored.ID] = &stored

	out := stored
	return &out, nil
}

// PublicThreadByThread finds an existing snapshot for a thread, or nil.
func (s *Memory) PublicThreadByThread(ctx context.Context, threadID string) (*model.PublicThread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, pt := range s.public {
		if pt.ThreadID == threadID {
			out := *pt
			return &out, nil
		}
	}
	return nil, nil
}

// GetPublicThread retrieves a snapshot by its public id.
func (s *Memory) GetPublicThread(ctx context.Context, publicID string) (*model.PublicThread, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pt, ok := s.public[publicID]
	if !ok {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, "public thread")
	}
	out := *pt
	return &out, nil
}

func sortByCreatedDesc(personas []model.Persona) {
	sort.SliceStable(personas, func(i, j int) bool {
		return personas[i].CreatedAt.After(personas[j].CreatedAt)
	})
}
