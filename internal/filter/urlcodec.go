package filter

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/noah-isme/qbank-admin-api/internal/models"
)

// queryParam binds one query-string key to a FilterState field. encode reports false when the
// field holds its default and the key must be omitted.
type queryParam struct {
	key    string
	encode func(s models.FilterState) (string, bool)
	decode func(raw string, p *StatePatch) bool
}

// queryParams is in the order keys are written to the query string.
var queryParams = []queryParam{
	{
		key: "isActive",
		encode: func(s models.FilterState) (string, bool) {
			if s.Basic.IsActive == nil {
				return "", false
			}
			return strconv.FormatBool(*s.Basic.IsActive), true
		},
		decode: func(raw string, p *StatePatch) bool {
			switch raw {
			case "true":
				v := true
				p.Basic.IsActive = Some(&v)
			case "false":
				v := false
				p.Basic.IsActive = Some(&v)
			default:
				return false
			}
			return true
		},
	},
	{
		key:    "questionType",
		encode: func(s models.FilterState) (string, bool) { return s.Basic.QuestionType, s.Basic.QuestionType != "" },
		decode: func(raw string, p *StatePatch) bool {
			p.Basic.QuestionType = Some(raw)
			return true
		},
	},
	{
		key:    "difficultyLevels",
		encode: func(s models.FilterState) (string, bool) { return joinStrings(s.Basic.DifficultyLevels) },
		decode: func(raw string, p *StatePatch) bool {
			p.Basic.DifficultyLevels = Some(splitStrings(raw))
			return true
		},
	},
	{
		key: "minMarks",
		encode: func(s models.FilterState) (string, bool) {
			return strconv.Itoa(s.Basic.MinMarks), s.Basic.MinMarks != models.DefaultMinMarks
		},
		decode: func(raw string, p *StatePatch) bool { return decodeInt(raw, &p.Basic.MinMarks) },
	},
	{
		key: "maxMarks",
		encode: func(s models.FilterState) (string, bool) {
			return strconv.Itoa(s.Basic.MaxMarks), s.Basic.MaxMarks != models.DefaultMaxMarks
		},
		decode: func(raw string, p *StatePatch) bool { return decodeInt(raw, &p.Basic.MaxMarks) },
	},
	idParam("courseTypeId", func(s *models.FilterState) *int64 { return s.Academic.CourseTypeID }, func(p *StatePatch) *Optional[*int64] { return &p.Academic.CourseTypeID }),
	idParam("relationshipId", func(s *models.FilterState) *int64 { return s.Academic.RelationshipID }, func(p *StatePatch) *Optional[*int64] { return &p.Academic.RelationshipID }),
	idParam("subjectId", func(s *models.FilterState) *int64 { return s.Academic.SubjectID }, func(p *StatePatch) *Optional[*int64] { return &p.Academic.SubjectID }),
	idParam("topicId", func(s *models.FilterState) *int64 { return s.Academic.TopicID }, func(p *StatePatch) *Optional[*int64] { return &p.Academic.TopicID }),
	idParam("moduleId", func(s *models.FilterState) *int64 { return s.Academic.ModuleID }, func(p *StatePatch) *Optional[*int64] { return &p.Academic.ModuleID }),
	idParam("chapterId", func(s *models.FilterState) *int64 { return s.Academic.ChapterID }, func(p *StatePatch) *Optional[*int64] { return &p.Academic.ChapterID }),
	{
		key:    "examIds",
		encode: func(s models.FilterState) (string, bool) { return joinInts(s.ExamSuitability.ExamIDs) },
		decode: func(raw string, p *StatePatch) bool {
			p.ExamSuitability.ExamIDs = Some(splitInts[int64](raw))
			return true
		},
	},
	{
		key:    "suitabilityLevels",
		encode: func(s models.FilterState) (string, bool) { return joinStrings(s.ExamSuitability.SuitabilityLevels) },
		decode: func(raw string, p *StatePatch) bool {
			p.ExamSuitability.SuitabilityLevels = Some(splitStrings(raw))
			return true
		},
	},
	{
		key:    "examTypes",
		encode: func(s models.FilterState) (string, bool) { return joinStrings(s.ExamSuitability.ExamTypes) },
		decode: func(raw string, p *StatePatch) bool {
			p.ExamSuitability.ExamTypes = Some(splitStrings(raw))
			return true
		},
	},
	{
		key:    "conductingBodies",
		encode: func(s models.FilterState) (string, bool) { return joinInts(s.ExamSuitability.ConductingBodies) },
		decode: func(raw string, p *StatePatch) bool {
			p.ExamSuitability.ConductingBodies = Some(splitInts[int64](raw))
			return true
		},
	},
	{
		key:    "prevExamIds",
		encode: func(s models.FilterState) (string, bool) { return joinInts(s.PreviouslyAsked.ExamIDs) },
		decode: func(raw string, p *StatePatch) bool {
			p.PreviouslyAsked.ExamIDs = Some(splitInts[int64](raw))
			return true
		},
	},
	{
		key:    "appearedYears",
		encode: func(s models.FilterState) (string, bool) { return joinInts(s.PreviouslyAsked.AppearedYears) },
		decode: func(raw string, p *StatePatch) bool {
			p.PreviouslyAsked.AppearedYears = Some(splitInts[int](raw))
			return true
		},
	},
	{
		key:    "sessions",
		encode: func(s models.FilterState) (string, bool) { return joinStrings(s.PreviouslyAsked.Sessions) },
		decode: func(raw string, p *StatePatch) bool {
			p.PreviouslyAsked.Sessions = Some(splitStrings(raw))
			return true
		},
	},
	{
		key:    "minMarksInExam",
		encode: func(s models.FilterState) (string, bool) { return formatIntPtr(s.PreviouslyAsked.MinMarksInExam) },
		decode: func(raw string, p *StatePatch) bool { return decodeIntPtr(raw, &p.PreviouslyAsked.MinMarksInExam) },
	},
	{
		key:    "maxMarksInExam",
		encode: func(s models.FilterState) (string, bool) { return formatIntPtr(s.PreviouslyAsked.MaxMarksInExam) },
		decode: func(raw string, p *StatePatch) bool { return decodeIntPtr(raw, &p.PreviouslyAsked.MaxMarksInExam) },
	},
	{
		key:    "questionNumbers",
		encode: func(s models.FilterState) (string, bool) { return joinStrings(s.PreviouslyAsked.QuestionNumbers) },
		decode: func(raw string, p *StatePatch) bool {
			p.PreviouslyAsked.QuestionNumbers = Some(splitStrings(raw))
			return true
		},
	},
	{
		key: "questionTextSearch",
		encode: func(s models.FilterState) (string, bool) {
			return s.SearchDate.QuestionTextSearch, s.SearchDate.QuestionTextSearch != ""
		},
		decode: func(raw string, p *StatePatch) bool {
			p.SearchDate.QuestionTextSearch = Some(raw)
			return true
		},
	},
	{
		key: "explanationSearch",
		encode: func(s models.FilterState) (string, bool) {
			return s.SearchDate.ExplanationSearch, s.SearchDate.ExplanationSearch != ""
		},
		decode: func(raw string, p *StatePatch) bool {
			p.SearchDate.ExplanationSearch = Some(raw)
			return true
		},
	},
	{
		key:    "dateFrom",
		encode: func(s models.FilterState) (string, bool) { return formatDate(s.SearchDate.DateFrom) },
		decode: func(raw string, p *StatePatch) bool { return decodeDate(raw, &p.SearchDate.DateFrom) },
	},
	{
		key:    "dateTo",
		encode: func(s models.FilterState) (string, bool) { return formatDate(s.SearchDate.DateTo) },
		decode: func(raw string, p *StatePatch) bool { return decodeDate(raw, &p.SearchDate.DateTo) },
	},
	{
		key: "page",
		encode: func(s models.FilterState) (string, bool) {
			return strconv.Itoa(s.SearchDate.Page), s.SearchDate.Page != models.DefaultPage
		},
		decode: func(raw string, p *StatePatch) bool { return decodeInt(raw, &p.SearchDate.Page) },
	},
	{
		key: "size",
		encode: func(s models.FilterState) (string, bool) {
			return strconv.Itoa(s.SearchDate.Size), s.SearchDate.Size != models.DefaultPageSize
		},
		decode: func(raw string, p *StatePatch) bool { return decodeInt(raw, &p.SearchDate.Size) },
	},
}

// QueryKeys returns every recognised query-string key in encoding order.
func QueryKeys() []string {
	keys := make([]string, len(queryParams))
	for i, param := range queryParams {
		keys[i] = param.key
	}
	return keys
}

// EncodeQuery serialises the non-default fields of state into a query string without the
// leading "?". The presets section is never encoded.
func EncodeQuery(state models.FilterState) string {
	var b strings.Builder
	for _, param := range queryParams {
		value, ok := param.encode(state)
		if !ok {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(param.key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(value))
	}
	return b.String()
}

// DecodeQuery parses a raw query string, with or without the leading "?". found is false when
// no recognised key is present.
func DecodeQuery(raw string) (patch StatePatch, found bool) {
	// ParseQuery keeps every well-formed pair even when it reports an error.
	values, _ := url.ParseQuery(strings.TrimPrefix(raw, "?"))
	return DecodeValues(values)
}

// DecodeValues is DecodeQuery for already parsed values. Values that do not parse are skipped
// and leave the field absent from the patch.
func DecodeValues(values url.Values) (patch StatePatch, found bool) {
	for _, param := range queryParams {
		if _, present := values[param.key]; !present {
			continue
		}
		found = true
		param.decode(values.Get(param.key), &patch)
	}
	return patch, found
}

func idParam(key string, get func(*models.FilterState) *int64, field func(*StatePatch) *Optional[*int64]) queryParam {
	return queryParam{
		key: key,
		encode: func(s models.FilterState) (string, bool) {
			v := get(&s)
			if v == nil {
				return "", false
			}
			return strconv.FormatInt(*v, 10), true
		},
		decode: func(raw string, p *StatePatch) bool {
			v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
			if err != nil {
				return false
			}
			*field(p) = Some(&v)
			return true
		},
	}
}

func joinStrings(values []string) (string, bool) {
	return strings.Join(values, ","), len(values) > 0
}

func joinInts[T int | int64](values []T) (string, bool) {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatInt(int64(v), 10)
	}
	return strings.Join(parts, ","), len(values) > 0
}

// splitStrings is the exact inverse of joinStrings: elements keep their whitespace and empty
// elements survive, so any set without commas round-trips.
func splitStrings(raw string) []string {
	return strings.Split(raw, ",")
}

func splitInts[T int | int64](raw string) []T {
	out := []T{}
	for _, part := range strings.Split(raw, ",") {
		v, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		out = append(out, T(v))
	}
	return out
}

func decodeInt(raw string, dst *Optional[int]) bool {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	*dst = Some(v)
	return true
}

func formatIntPtr(v *int) (string, bool) {
	if v == nil {
		return "", false
	}
	return strconv.Itoa(*v), true
}

func decodeIntPtr(raw string, dst *Optional[*int]) bool {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	*dst = Some(&v)
	return true
}

func formatDate(d *models.Date) (string, bool) {
	if d == nil {
		return "", false
	}
	return d.String(), true
}

func decodeDate(raw string, dst *Optional[*models.Date]) bool {
	d, err := models.ParseDate(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	*dst = Some(&d)
	return true
}
