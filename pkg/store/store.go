// Package store holds the browser's navigation state and the reducer that
// moves it between tree loads, root changes and selections.
package store

import (
	"sync"

	"github.com/Dicklesworthstone/course_block_viewer/pkg/loader"
	"github.com/Dicklesworthstone/course_block_viewer/pkg/model"
)

// NavigationState is everything the browser renders from.
// Blocks and Index are shared between successive states and never mutated.
type NavigationState struct {
	Blocks        *model.BlockTreeNode
	Index         map[string]*model.BlockTreeNode
	SelectedBlock string
	RootBlock     string
}

// Loaded reports whether a tree has been loaded
func (s NavigationState) Loaded() bool {
	return s.Blocks != nil
}

// ActionKind names a state transition
type ActionKind string

const (
	KindBlocksLoaded     ActionKind = "blocksLoaded"
	KindRootChanged      ActionKind = "rootChanged"
	KindSelectionChanged ActionKind = "selectionChanged"
)

// Action is a message applied to NavigationState by Reduce
type Action interface {
	Kind() ActionKind
}

// BlocksLoaded replaces the tree with one built from Payload
type BlocksLoaded struct {
	Payload *model.FlatBlockMap
}

func (BlocksLoaded) Kind() ActionKind { return KindBlocksLoaded }

// RootChanged moves the displayed subtree to BlockID
type RootChanged struct {
	BlockID string
}

func (RootChanged) Kind() ActionKind { return KindRootChanged }

// SelectionChanged records the instructor's chosen block
type SelectionChanged struct {
	BlockID string
}

func (SelectionChanged) Kind() ActionKind { return KindSelectionChanged }

// Reduce returns the state that follows applying action to state.
// Unknown actions leave the state unchanged.
func Reduce(state NavigationState, action Action) NavigationState {
	switch a := action.(type) {
	case BlocksLoaded:
		tree := loader.BuildBlockTree(a.Payload)
		state.Blocks = tree
		state.Index = loader.IndexBlockTree(tree)
		state.RootBlock = ""
		if a.Payload != nil {
			state.RootBlock = a.Payload.Root
		}
	case RootChanged:
		state.RootBlock = a.BlockID
	case SelectionChanged:
		state.SelectedBlock = a.BlockID
	}
	return state
}

// Store is an explicitly constructed container for NavigationState.
// Each browser gets its own; dispatches are serialized.
type Store struct {
	mu          sync.RWMutex
	state       NavigationState
	subscribers map[int]func(NavigationState)
	nextID      int
}

// New creates an empty store
func New() *Store {
	return &Store{subscribers: make(map[int]func(NavigationState))}
}

// State returns the current state
func (s *Store) State() NavigationState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Dispatch applies action and notifies subscribers with the new state.
// Subscribers run after the lock is released and may dispatch again.
func (s *Store) Dispatch(action Action) NavigationState {
	s.mu.Lock()
	s.state = Reduce(s.state, action)
	next := s.state
	subs := make([]func(NavigationState), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(next)
	}
	return next
}

// Subscribe registers fn to be called after every dispatch.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(NavigationState)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}
