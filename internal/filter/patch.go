package filter

import (
	"encoding/json"

	"github.com/noah-isme/qbank-admin-api/internal/models"
)

// Optional marks a patch field as present. The zero value leaves the target field untouched.
type Optional[T any] struct {
	Set   bool
	Value T
}

// Some returns a present Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

// UnmarshalJSON marks the field present whenever its key appears, including an explicit null.
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	return json.Unmarshal(data, &o.Value)
}

func (o Optional[T]) applyTo(dst *T) {
	if o.Set {
		*dst = o.Value
	}
}

// BasicPatch is a partial update of the basic section.
type BasicPatch struct {
	IsActive         Optional[*bool]    `json:"isActive"`
	QuestionType     Optional[string]   `json:"questionType"`
	DifficultyLevels Optional[[]string] `json:"difficultyLevels"`
	MinMarks         Optional[int]      `json:"minMarks"`
	MaxMarks         Optional[int]      `json:"maxMarks"`
}

func (p BasicPatch) apply(dst *models.BasicFilters) {
	p.IsActive.applyTo(&dst.IsActive)
	p.QuestionType.applyTo(&dst.QuestionType)
	p.DifficultyLevels.applyTo(&dst.DifficultyLevels)
	p.MinMarks.applyTo(&dst.MinMarks)
	p.MaxMarks.applyTo(&dst.MaxMarks)
}

// AcademicPatch is a partial update of the academic section.
type AcademicPatch struct {
	CourseTypeID   Optional[*int64] `json:"courseTypeId"`
	RelationshipID Optional[*int64] `json:"relationshipId"`
	SubjectID      Optional[*int64] `json:"subjectId"`
	TopicID        Optional[*int64] `json:"topicId"`
	ModuleID       Optional[*int64] `json:"moduleId"`
	ChapterID      Optional[*int64] `json:"chapterId"`
}

func (p AcademicPatch) apply(dst *models.AcademicFilters) {
	p.CourseTypeID.applyTo(&dst.CourseTypeID)
	p.RelationshipID.applyTo(&dst.RelationshipID)
	p.SubjectID.applyTo(&dst.SubjectID)
	p.TopicID.applyTo(&dst.TopicID)
	p.ModuleID.applyTo(&dst.ModuleID)
	p.ChapterID.applyTo(&dst.ChapterID)
}

// ExamSuitabilityPatch is a partial update of the exam suitability section.
type ExamSuitabilityPatch struct {
	ExamIDs           Optional[[]int64]  `json:"examIds"`
	SuitabilityLevels Optional[[]string] `json:"suitabilityLevels"`
	ExamTypes         Optional[[]string] `json:"examTypes"`
	ConductingBodies  Optional[[]int64]  `json:"conductingBodies"`
}

func (p ExamSuitabilityPatch) apply(dst *models.ExamSuitabilityFilters) {
	p.ExamIDs.applyTo(&dst.ExamIDs)
	p.SuitabilityLevels.applyTo(&dst.SuitabilityLevels)
	p.ExamTypes.applyTo(&dst.ExamTypes)
	p.ConductingBodies.applyTo(&dst.ConductingBodies)
}

// PreviouslyAskedPatch is a partial update of the previously asked section.
type PreviouslyAskedPatch struct {
	ExamIDs         Optional[[]int64]  `json:"examIds"`
	AppearedYears   Optional[[]int]    `json:"appearedYears"`
	Sessions        Optional[[]string] `json:"sessions"`
	MinMarksInExam  Optional[*int]     `json:"minMarksInExam"`
	MaxMarksInExam  Optional[*int]     `json:"maxMarksInExam"`
	QuestionNumbers Optional[[]string] `json:"questionNumbers"`
}

func (p PreviouslyAskedPatch) apply(dst *models.PreviouslyAskedFilters) {
	p.ExamIDs.applyTo(&dst.ExamIDs)
	p.AppearedYears.applyTo(&dst.AppearedYears)
	p.Sessions.applyTo(&dst.Sessions)
	p.MinMarksInExam.applyTo(&dst.MinMarksInExam)
	p.MaxMarksInExam.applyTo(&dst.MaxMarksInExam)
	p.QuestionNumbers.applyTo(&dst.QuestionNumbers)
}

// SearchDatePatch is a partial update of the search/date/pagination section.
type SearchDatePatch struct {
	QuestionTextSearch Optional[string]       `json:"questionTextSearch"`
	ExplanationSearch  Optional[string]       `json:"explanationSearch"`
	DateFrom           Optional[*models.Date] `json:"dateFrom"`
	DateTo             Optional[*models.Date] `json:"dateTo"`
	Page               Optional[int]          `json:"page"`
	Size               Optional[int]          `json:"size"`
}

func (p SearchDatePatch) apply(dst *models.SearchDateFilters) {
	p.QuestionTextSearch.applyTo(&dst.QuestionTextSearch)
	p.ExplanationSearch.applyTo(&dst.ExplanationSearch)
	p.DateFrom.applyTo(&dst.DateFrom)
	p.DateTo.applyTo(&dst.DateTo)
	p.Page.applyTo(&dst.Page)
	p.Size.applyTo(&dst.Size)
}

// PresetsPatch is a partial update of the mirrored presets section.
type PresetsPatch struct {
	Saved  Optional[[]models.Preset] `json:"saved"`
	Active Optional[*string]         `json:"active"`
}

func (p PresetsPatch) apply(dst *models.PresetsMeta) {
	p.Saved.applyTo(&dst.Saved)
	p.Active.applyTo(&dst.Active)
}

// StatePatch groups partial updates for every filter section, e.g. as decoded from a URL.
type StatePatch struct {
	Basic           BasicPatch
	Academic        AcademicPatch
	ExamSuitability ExamSuitabilityPatch
	PreviouslyAsked PreviouslyAskedPatch
	SearchDate      SearchDatePatch
}

// Snapshot applies the patch on top of base and returns the resulting deep copy.
func (p StatePatch) Snapshot(base models.FilterState) models.FilterState {
	out := base.Clone()
	p.Basic.apply(&out.Basic)
	p.Academic.apply(&out.Academic)
	p.ExamSuitability.apply(&out.ExamSuitability)
	p.PreviouslyAsked.apply(&out.PreviouslyAsked)
	p.SearchDate.apply(&out.SearchDate)
	return out.Clone()
}
