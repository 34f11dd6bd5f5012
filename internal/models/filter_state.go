package models

// Documented defaults for the numeric filter fields.
const (
	DefaultMinMarks = 1
	DefaultMaxMarks = 10
	DefaultPage     = 0
	DefaultPageSize = 20
)

// AllowedPageSizes lists the page sizes offered by the dashboard.
var AllowedPageSizes = []int{10, 20, 50, 100}

// FilterState is the sectioned question search criteria driving a search screen.
type FilterState struct {
	Basic           BasicFilters           `json:"basic"`
	Academic        AcademicFilters        `json:"academic"`
	ExamSuitability ExamSuitabilityFilters `json:"examSuitability"`
	PreviouslyAsked PreviouslyAskedFilters `json:"previouslyAsked"`
	SearchDate      SearchDateFilters      `json:"searchDate"`
	Presets         PresetsMeta            `json:"presets"`
}

// BasicFilters holds the top-level question attributes.
type BasicFilters struct {
	IsActive         *bool    `json:"isActive"`
	QuestionType     string   `json:"questionType"`
	DifficultyLevels []string `json:"difficultyLevels"`
	MinMarks         int      `json:"minMarks"`
	MaxMarks         int      `json:"maxMarks"`
}

// AcademicFilters narrows by the course hierarchy. The course is implied by RelationshipID.
type AcademicFilters struct {
	CourseTypeID   *int64 `json:"courseTypeId"`
	RelationshipID *int64 `json:"relationshipId"`
	SubjectID      *int64 `json:"subjectId"`
	TopicID        *int64 `json:"topicId"`
	ModuleID       *int64 `json:"moduleId"`
	ChapterID      *int64 `json:"chapterId"`
}

// ExamSuitabilityFilters selects questions tagged as suitable for given exams.
type ExamSuitabilityFilters struct {
	ExamIDs           []int64  `json:"examIds"`
	SuitabilityLevels []string `json:"suitabilityLevels"`
	ExamTypes         []string `json:"examTypes"`
	ConductingBodies  []int64  `json:"conductingBodies"`
}

// PreviouslyAskedFilters selects questions that appeared in past exam papers.
type PreviouslyAskedFilters struct {
	ExamIDs         []int64  `json:"examIds"`
	AppearedYears   []int    `json:"appearedYears"`
	Sessions        []string `json:"sessions"`
	MinMarksInExam  *int     `json:"minMarksInExam"`
	MaxMarksInExam  *int     `json:"maxMarksInExam"`
	QuestionNumbers []string `json:"questionNumbers"`
}

// SearchDateFilters holds free-text search, the creation date window and pagination.
type SearchDateFilters struct {
	QuestionTextSearch string `json:"questionTextSearch"`
	ExplanationSearch  string `json:"explanationSearch"`
	DateFrom           *Date  `json:"dateFrom"`
	DateTo             *Date  `json:"dateTo"`
	Page               int    `json:"page"`
	Size               int    `json:"size"`
}

// PresetsMeta mirrors the preset store; it is never the source of truth.
type PresetsMeta struct {
	Saved  []Preset `json:"saved"`
	Active *string  `json:"active"`
}

// DefaultFilterState returns the documented initial state.
func DefaultFilterState() FilterState {
	return FilterState{
		Basic: BasicFilters{
			DifficultyLevels: []string{},
			MinMarks:         DefaultMinMarks,
			MaxMarks:         DefaultMaxMarks,
		},
		ExamSuitability: ExamSuitabilityFilters{
			ExamIDs:           []int64{},
			SuitabilityLevels: []string{},
			ExamTypes:         []string{},
			ConductingBodies:  []int64{},
		},
		PreviouslyAsked: PreviouslyAskedFilters{
			ExamIDs:         []int64{},
			AppearedYears:   []int{},
			Sessions:        []string{},
			QuestionNumbers: []string{},
		},
		SearchDate: SearchDateFilters{
			Page: DefaultPage,
			Size: DefaultPageSize,
		},
		Presets: PresetsMeta{Saved: []Preset{}},
	}
}

// Clone deep-copies the state. Nil slices come back empty so clones compare equal regardless of
// how the source was built.
func (s FilterState) Clone() FilterState {
	return FilterState{
		Basic:           s.Basic.Clone(),
		Academic:        s.Academic.Clone(),
		ExamSuitability: s.ExamSuitability.Clone(),
		PreviouslyAsked: s.PreviouslyAsked.Clone(),
		SearchDate:      s.SearchDate.Clone(),
		Presets:         s.Presets.Clone(),
	}
}

// WithoutPresets returns a deep copy with an empty presets section, the form stored in presets.
func (s FilterState) WithoutPresets() FilterState {
	out := s.Clone()
	out.Presets = PresetsMeta{Saved: []Preset{}}
	return out
}

func (b BasicFilters) Clone() BasicFilters {
	out := b
	out.IsActive = clonePtr(b.IsActive)
	out.DifficultyLevels = cloneSlice(b.DifficultyLevels)
	return out
}

func (a AcademicFilters) Clone() AcademicFilters {
	return AcademicFilters{
		CourseTypeID:   clonePtr(a.CourseTypeID),
		RelationshipID: clonePtr(a.RelationshipID),
		SubjectID:      clonePtr(a.SubjectID),
		TopicID:        clonePtr(a.TopicID),
		ModuleID:       clonePtr(a.ModuleID),
		ChapterID:      clonePtr(a.ChapterID),
	}
}

func (e ExamSuitabilityFilters) Clone() ExamSuitabilityFilters {
	return ExamSuitabilityFilters{
		ExamIDs:           cloneSlice(e.ExamIDs),
		SuitabilityLevels: cloneSlice(e.SuitabilityLevels),
		ExamTypes:         cloneSlice(e.ExamTypes),
		ConductingBodies:  cloneSlice(e.ConductingBodies),
	}
}

func (p PreviouslyAskedFilters) Clone() PreviouslyAskedFilters {
	return PreviouslyAskedFilters{
		ExamIDs:         cloneSlice(p.ExamIDs),
		AppearedYears:   cloneSlice(p.AppearedYears),
		Sessions:        cloneSlice(p.Sessions),
		MinMarksInExam:  clonePtr(p.MinMarksInExam),
		MaxMarksInExam:  clonePtr(p.MaxMarksInExam),
		QuestionNumbers: cloneSlice(p.QuestionNumbers),
	}
}

func (d SearchDateFilters) Clone() SearchDateFilters {
	out := d
	out.DateFrom = clonePtr(d.DateFrom)
	out.DateTo = clonePtr(d.DateTo)
	return out
}

func (p PresetsMeta) Clone() PresetsMeta {
	saved := make([]Preset, len(p.Saved))
	for i, preset := range p.Saved {
		saved[i] = preset.Clone()
	}
	return PresetsMeta{Saved: saved, Active: clonePtr(p.Active)}
}

func cloneSlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func clonePtr[T any](in *T) *T {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}
