// Package filter holds the question search filter state machine: a pure reducer over
// models.FilterState, its query-string encoding, and the debounced address synchroniser.
package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/noah-isme/qbank-admin-api/internal/models"
)

// Section names one filter section.
type Section string

const (
	SectionBasic           Section = "basic"
	SectionAcademic        Section = "academic"
	SectionExamSuitability Section = "examSuitability"
	SectionPreviouslyAsked Section = "previouslyAsked"
	SectionSearchDate      Section = "searchDate"
	SectionPresets         Section = "presets"
)

// Action is a closed set of state transitions. Only types in this package implement it.
type Action interface {
	isAction()
}

type (
	UpdateBasic           struct{ Patch BasicPatch }
	UpdateAcademic        struct{ Patch AcademicPatch }
	UpdateExamSuitability struct{ Patch ExamSuitabilityPatch }
	UpdatePreviouslyAsked struct{ Patch PreviouslyAskedPatch }
	UpdateSearchDate      struct{ Patch SearchDatePatch }
	UpdatePresetsMeta     struct{ Patch PresetsPatch }
	// ResetAll restores defaults but carries presets.saved forward.
	ResetAll struct{}
	// LoadSnapshot replaces every section except presets.
	LoadSnapshot struct{ Snapshot models.FilterState }
)

func (UpdateBasic) isAction()           {}
func (UpdateAcademic) isAction()        {}
func (UpdateExamSuitability) isAction() {}
func (UpdatePreviouslyAsked) isAction() {}
func (UpdateSearchDate) isAction()      {}
func (UpdatePresetsMeta) isAction()     {}
func (ResetAll) isAction()              {}
func (LoadSnapshot) isAction()          {}

// Reduce returns the state produced by applying action to state. It never mutates its input.
func Reduce(state models.FilterState, action Action) models.FilterState {
	next := state.Clone()
	sectionUpdate := true

	switch a := action.(type) {
	case UpdateBasic:
		a.Patch.apply(&next.Basic)
	case UpdateAcademic:
		a.Patch.apply(&next.Academic)
	case UpdateExamSuitability:
		a.Patch.apply(&next.ExamSuitability)
	case UpdatePreviouslyAsked:
		a.Patch.apply(&next.PreviouslyAsked)
	case UpdateSearchDate:
		a.Patch.apply(&next.SearchDate)
	case UpdatePresetsMeta:
		sectionUpdate = false
		a.Patch.apply(&next.Presets)
	case ResetAll:
		sectionUpdate = false
		saved := next.Presets.Saved
		next = models.DefaultFilterState()
		next.Presets.Saved = saved
	case LoadSnapshot:
		sectionUpdate = false
		presets := next.Presets
		next = a.Snapshot.Clone()
		next.Presets = presets
	default:
		panic(fmt.Sprintf("filter: unhandled action %T", action))
	}

	next = next.Clone()
	if sectionUpdate && filtersChanged(state, next) {
		next.SearchDate.Page = models.DefaultPage
	}
	return next
}

// filtersChanged reports whether any filter field other than the page differs.
func filtersChanged(prev, next models.FilterState) bool {
	a := prev.WithoutPresets()
	b := next.WithoutPresets()
	a.SearchDate.Page = 0
	b.SearchDate.Page = 0
	return !reflect.DeepEqual(a, b)
}

// Store holds one FilterState and applies actions to it. It is not safe for concurrent use.
type Store struct {
	state models.FilterState
}

// NewStore starts a store from initial.
func NewStore(initial models.FilterState) *Store {
	return &Store{state: initial.Clone()}
}

// Dispatch applies the action and returns a copy of the new state.
func (s *Store) Dispatch(action Action) models.FilterState {
	s.state = Reduce(s.state, action)
	return s.State()
}

// State returns a deep copy of the current state.
func (s *Store) State() models.FilterState {
	return s.state.Clone()
}

// ParseSection validates a section name.
func ParseSection(raw string) (Section, error) {
	switch s := Section(raw); s {
	case SectionBasic, SectionAcademic, SectionExamSuitability, SectionPreviouslyAsked, SectionSearchDate, SectionPresets:
		return s, nil
	}
	return "", fmt.Errorf("unknown filter section %q", raw)
}

// DecodeSectionPatch builds the update action for section from a JSON object holding only the
// fields to change. Unknown fields are rejected.
func DecodeSectionPatch(section Section, raw []byte) (Action, error) {
	switch section {
	case SectionBasic:
		var p BasicPatch
		if err := decodeStrict(raw, &p); err != nil {
			return nil, err
		}
		return UpdateBasic{Patch: p}, nil
	case SectionAcademic:
		var p AcademicPatch
		if err := decodeStrict(raw, &p); err != nil {
			return nil, err
		}
		return UpdateAcademic{Patch: p}, nil
	case SectionExamSuitability:
		var p ExamSuitabilityPatch
		if err := decodeStrict(raw, &p); err != nil {
			return nil, err
		}
		return UpdateExamSuitability{Patch: p}, nil
	case SectionPreviouslyAsked:
		var p PreviouslyAskedPatch
		if err := decodeStrict(raw, &p); err != nil {
			return nil, err
		}
		return UpdatePreviouslyAsked{Patch: p}, nil
	case SectionSearchDate:
		var p SearchDatePatch
		if err := decodeStrict(raw, &p); err != nil {
			return nil, err
		}
		return UpdateSearchDate{Patch: p}, nil
	case SectionPresets:
		var p PresetsPatch
		if err := decodeStrict(raw, &p); err != nil {
			return nil, err
		}
		return UpdatePresetsMeta{Patch: p}, nil
	}
	return nil, fmt.Errorf("unknown filter section %q", section)
}

func decodeStrict(raw []byte, dst interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode section patch: %w", err)
	}
	return nil
}
