package notice

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dshills/basestyle/internal/logging"
)

func TestRecorder(t *testing.T) {
	r := NewRecorder()
	r.Notify(Notice{Level: LevelWarning, Kind: KindPolicyViolation, Message: "bad"})
	r.Notify(Notice{Level: LevelError, Kind: KindComputationFault, Message: "boom"})

	assert.Equal(t, 2, r.Len())
	assert.Len(t, r.OfKind(KindPolicyViolation), 1)
	assert.Equal(t, "boom", r.Notices()[1].Message)

	r.Reset()
	assert.Equal(t, 0, r.Len())
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: logging.LevelInfo, Output: &buf, Format: logging.FormatJSON})
	n := NewLogNotifier(logger)

	n.Notify(Notice{Level: LevelError, Kind: KindComputationFault, Message: "Error in snippet", Property: "note.priority"})

	out := buf.String()
	assert.Contains(t, out, `"level":"error"`)
	assert.Contains(t, out, `"property":"note.priority"`)
	assert.Contains(t, out, "Error in snippet")
}

func TestMultiAndFunc(t *testing.T) {
	var got []string
	r := NewRecorder()
	m := Multi{r, Func(func(n Notice) { got = append(got, n.Message) }), nil, Discard}

	m.Notify(Notice{Message: "hello"})

	assert.Equal(t, []string{"hello"}, got)
	assert.Equal(t, 1, r.Len())
}
