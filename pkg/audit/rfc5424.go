package audit

import (
	"strconv"
	"time"
)

// Facility is the syslog facility denials are filed under.
type Facility int

const (
	FacilityAuth   Facility = 4
	FacilityLocal0 Facility = 16
)

// Denials are always logged at warning.
const severityWarning = 4

// Header field limits from RFC 5424 section 6.
const (
	maxHostLen  = 255
	maxAppLen   = 48
	maxMsgIDLen = 32
)

const nilValue = '-'

// Param is one name/value pair inside the hcm structured-data element.
type Param struct {
	Name  string
	Value string
}

// Record is a single denial line before it is put on the wire.
// The process id is always NILVALUE.
type Record struct {
	Facility Facility
	Time     time.Time
	Host     string
	App      string
	MsgID    string
	Params   []Param
	Text     string
}

// Bytes renders the record as one RFC 5424 line without a trailing newline.
func (r Record) Bytes() []byte {
	buf := make([]byte, 0, 384)

	buf = append(buf, '<')
	buf = strconv.AppendInt(buf, int64(r.Facility)*8+severityWarning, 10)
	buf = append(buf, ">1 "...)
	if r.Time.IsZero() {
		buf = append(buf, nilValue)
	} else {
		buf = r.Time.UTC().AppendFormat(buf, "2006-01-02T15:04:05.000Z")
	}

	buf = appendHeaderField(buf, r.Host, maxHostLen)
	buf = appendHeaderField(buf, r.App, maxAppLen)
	buf = append(buf, ' ', nilValue)
	buf = appendHeaderField(buf, r.MsgID, maxMsgIDLen)

	buf = append(buf, ' ')
	buf = appendStructuredData(buf, r.Params)

	if r.Text != "" {
		buf = append(buf, ' ')
		buf = append(buf, r.Text...)
	}
	return buf
}

// appendHeaderField writes " value", falling back to NILVALUE for empty
// input or anything outside printable US-ASCII.
func appendHeaderField(buf []byte, v string, limit int) []byte {
	buf = append(buf, ' ')
	if !validHeaderValue(v) {
		return append(buf, nilValue)
	}
	if len(v) > limit {
		v = v[:limit]
	}
	return append(buf, v...)
}

func appendStructuredData(buf []byte, params []Param) []byte {
	if len(params) == 0 {
		return append(buf, nilValue)
	}
	buf = append(buf, '[')
	buf = append(buf, sdID...)
	for _, p := range params {
		buf = append(buf, ' ')
		buf = append(buf, p.Name...)
		buf = append(buf, '=', '"')
		for i := 0; i < len(p.Value); i++ {
			if c := p.Value[i]; c == '"' || c == '\\' || c == ']' {
				buf = append(buf, '\\')
			}
			buf = append(buf, p.Value[i])
		}
		buf = append(buf, '"')
	}
	return append(buf, ']')
}

// validHeaderValue reports whether v is non-empty printable US-ASCII.
func validHeaderValue(v string) bool {
	if v == "" {
		return false
	}
	for i := 0; i < len(v); i++ {
		if v[i] < '!' || v[i] > '~' {
			return false
		}
	}
	return true
}
