// README: Normalizes the legacy bio blob shapes into Details.
package profile

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// rawDetails accepts every shape the bio column has carried: bio as plain
// text or as a nested object, "about" as an older alias, age as number or
// string, interests as a list or a comma separated string.
type rawDetails struct {
	Bio       json.RawMessage `json:"bio"`
	About     json.RawMessage `json:"about"`
	Text      json.RawMessage `json:"text"`
	Age       json.RawMessage `json:"age"`
	Interests json.RawMessage `json:"interests"`
}

// DecodeDetails never fails: input that is not a recognised JSON shape is
// kept verbatim as bio text.
func DecodeDetails(raw []byte) Details {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Details{Interests: []string{}}
	}

	switch trimmed[0] {
	case '{':
		if d, ok := decodeObject(trimmed); ok {
			return d
		}
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err == nil {
			s = strings.TrimSpace(s)
			if strings.HasPrefix(s, "{") {
				if d, ok := decodeObject([]byte(s)); ok {
					return d
				}
			}
			return Details{Bio: s, Interests: []string{}}
		}
	}
	return Details{Bio: string(trimmed), Interests: []string{}}
}

func decodeObject(data []byte) (Details, bool) {
	var rd rawDetails
	if err := json.Unmarshal(data, &rd); err != nil {
		return Details{}, false
	}

	d := Details{
		Age:       decodeAge(rd.Age),
		Interests: decodeInterests(rd.Interests),
	}

	bio := firstPresent(rd.Bio, rd.About, rd.Text)
	if len(bio) > 0 {
		switch bio[0] {
		case '{', '"':
			nested := DecodeDetails(bio)
			d.Bio = nested.Bio
			if d.Age == 0 {
				d.Age = nested.Age
			}
			if len(d.Interests) == 0 {
				d.Interests = nested.Interests
			}
		default:
			if !bytes.Equal(bio, []byte("null")) {
				d.Bio = string(bio)
			}
		}
	}
	d.Interests = NormalizeInterests(d.Interests)
	return d, true
}

func firstPresent(fields ...json.RawMessage) json.RawMessage {
	for _, f := range fields {
		f = bytes.TrimSpace(f)
		if len(f) > 0 && !bytes.Equal(f, []byte("null")) {
			return f
		}
	}
	return nil
}

func decodeAge(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return int(n)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if v, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return v
		}
	}
	return 0
}

func decodeInterests(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.Split(s, ",")
	}
	return nil
}

// EncodeDetails produces the canonical blob written back to the store.
func EncodeDetails(d Details) ([]byte, error) {
	d.Interests = NormalizeInterests(d.Interests)
	return json.Marshal(d)
}
