package reports

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"golang.org/x/exp/slices"

	"github.com/pescuma/tia/lib/model"
)

const (
	// DictionaryThreshold is the number of references to a single class above which
	// class names are replaced by indexes.
	DictionaryThreshold = 1000
	// CompressionThreshold is the document length, in characters, above which the
	// document is deflated and base64 encoded.
	CompressionThreshold = 100_000

	classesKey = "classes"
	digestsKey = "digests"
)

var ErrCorrupt = errors.New("corrupt report")

type schema int

const (
	schemaPlain schema = iota
	schemaDictionary
)

func Encode(report *model.Report) (string, error) {
	counts := countReferences(report.Footprints)

	s := schemaPlain
	if lo.SomeBy(lo.Values(counts), func(c int) bool { return c > DictionaryThreshold }) {
		s = schemaDictionary
	}

	doc := make(map[string]any, len(report.Footprints)+2)
	doc[digestsKey] = lo.Assign(map[string]string{}, report.Digests)

	switch s {
	case schemaDictionary:
		classes, index := buildDictionary(counts)
		doc[classesKey] = classes

		for project, tests := range report.Footprints {
			entries := make(map[string]string, len(tests))
			for test, refs := range tests {
				entries[test] = joinIndexes(refs.Slice(), index)
			}
			doc[project] = entries
		}

	default:
		for project, tests := range report.Footprints {
			entries := make(map[string][]string, len(tests))
			for test, refs := range tests {
				classes := model.SortedSlice(refs)
				if classes == nil {
					classes = []string{}
				}
				entries[test] = classes
			}
			doc[project] = entries
		}
	}

	result, err := marshal(doc)
	if err != nil {
		return "", err
	}

	if utf8.RuneCountInString(result) > CompressionThreshold {
		result, err = Compress(result)
		if err != nil {
			return "", err
		}
	}

	return result, nil
}

func countReferences(footprints model.Footprints) map[string]int {
	result := make(map[string]int)
	for _, tests := range footprints {
		for _, refs := range tests {
			for _, c := range refs.Slice() {
				result[c]++
			}
		}
	}
	return result
}

// buildDictionary assigns hex indexes starting at 1, most referenced classes first.
func buildDictionary(counts map[string]int) (map[string]string, map[string]string) {
	names := lo.Keys(counts)
	slices.SortFunc(names, func(a, b string) int {
		if counts[a] != counts[b] {
			return counts[b] - counts[a]
		}
		return strings.Compare(a, b)
	})

	classes := make(map[string]string, len(names))
	index := make(map[string]string, len(names))
	for i, name := range names {
		id := strconv.FormatInt(int64(i+1), 16)
		classes[id] = name
		index[name] = id
	}

	return classes, index
}

func joinIndexes(refs []string, index map[string]string) string {
	ids := lo.Uniq(lo.Map(refs, func(c string, _ int) string { return index[c] }))
	slices.SortFunc(ids, compareIndexes)
	return strings.Join(ids, " ")
}

func compareIndexes(a, b string) int {
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	return strings.Compare(a, b)
}

func marshal(doc map[string]any) (string, error) {
	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)

	err := encoder.Encode(doc)
	if err != nil {
		return "", errors.Wrap(err, "error encoding report")
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}

func Decode(text string) (*model.Report, error) {
	result := model.NewReport()

	text = strings.TrimSpace(text)
	if text == "" {
		return result, nil
	}

	if !strings.HasPrefix(text, "{") {
		var err error
		text, err = Uncompress(text)
		if err != nil {
			return nil, err
		}
	}

	var doc map[string]json.RawMessage
	err := json.Unmarshal([]byte(text), &doc)
	if err != nil {
		return nil, errors.Wrap(ErrCorrupt, err.Error())
	}

	if raw, ok := doc[digestsKey]; ok {
		delete(doc, digestsKey)

		err = json.Unmarshal(raw, &result.Digests)
		if err != nil {
			return nil, errors.Wrapf(ErrCorrupt, "invalid digests: %v", err)
		}
		if result.Digests == nil {
			result.Digests = make(model.Digests)
		}
	}

	s := schemaPlain
	var classes map[string]string
	if raw, ok := doc[classesKey]; ok {
		delete(doc, classesKey)

		s = schemaDictionary
		err = json.Unmarshal(raw, &classes)
		if err != nil {
			return nil, errors.Wrapf(ErrCorrupt, "invalid classes dictionary: %v", err)
		}
	}

	for project, raw := range doc {
		switch s {
		case schemaDictionary:
			err = decodeDictionaryProject(result.Footprints, project, raw, classes)
		default:
			err = decodePlainProject(result.Footprints, project, raw)
		}
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

func decodePlainProject(footprints model.Footprints, project string, raw json.RawMessage) error {
	var tests map[string][]string
	err := json.Unmarshal(raw, &tests)
	if err != nil {
		return errors.Wrapf(ErrCorrupt, "invalid project %v: %v", project, err)
	}

	footprints.GetOrCreate(project)
	for test, classes := range tests {
		footprints.Add(project, test, classes...)
	}

	return nil
}

func decodeDictionaryProject(footprints model.Footprints, project string, raw json.RawMessage, classes map[string]string) error {
	var tests map[string]string
	err := json.Unmarshal(raw, &tests)
	if err != nil {
		return errors.Wrapf(ErrCorrupt, "invalid project %v: %v", project, err)
	}

	footprints.GetOrCreate(project)
	for test, ids := range tests {
		refs := make([]string, 0, 10)
		for _, id := range strings.Fields(ids) {
			name, ok := classes[id]
			if !ok {
				return errors.Wrapf(ErrCorrupt, "unknown class index %v in %v / %v", id, project, test)
			}
			refs = append(refs, name)
		}
		footprints.Add(project, test, refs...)
	}

	return nil
}
