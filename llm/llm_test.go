package llm

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/genai"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}```", `{"a":1}`},
		{"no fence", "  {\"a\":1}  ", `{"a":1}`},
		{"only trailing", "{\"a\":1}\n```", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestExtractObject(t *testing.T) {
	assert.Equal(t, `{"days":[{"x":{}}]}`, ExtractObject(`Sure! Here it is: {"days":[{"x":{}}]} Enjoy.`))
	assert.Equal(t, "", ExtractObject("no json here"))
	assert.Equal(t, "", ExtractObject("} backwards {"))
}

func TestPresets(t *testing.T) {
	d := DefaultConfig()
	assert.Equal(t, "gemini-2.5-flash-lite", d.Model)
	assert.EqualValues(t, 12288, d.MaxOutputTokens)
	assert.False(t, d.UseSearch)
	assert.True(t, d.SafetyOff)

	p := PlanConfig()
	assert.True(t, p.UseSearch)
	assert.EqualValues(t, 8000, p.MaxOutputTokens)

	a := AdjustConfig()
	assert.Less(t, a.Temperature, p.Temperature)
	assert.Less(t, a.TopP, p.TopP)
	assert.EqualValues(t, 4096, a.MaxOutputTokens)
}

func TestWithDefaultsKeepsZeroSampling(t *testing.T) {
	assert.Equal(t, DefaultConfig(), Config{}.withDefaults())

	greedy := Config{Temperature: 0, TopP: 0, UseSearch: true}.withDefaults()
	assert.Zero(t, greedy.Temperature)
	assert.Zero(t, greedy.TopP)
	assert.Equal(t, DefaultModel, greedy.Model)
	assert.EqualValues(t, 12288, greedy.MaxOutputTokens)

	f := NewFixture()
	f.Generate(context.Background(), "hi", "", Config{Model: "m", Temperature: 0, TopP: 0})
	calls := f.Calls()
	require.Len(t, calls, 1)
	assert.Zero(t, calls[0].Config.Temperature)
	assert.Zero(t, calls[0].Config.TopP)
}

func TestBuildConfig(t *testing.T) {
	gc := buildConfig("be helpful", Config{Temperature: 0.3, TopP: 0.8, MaxOutputTokens: 100, UseSearch: true, SafetyOff: true})
	require.NotNil(t, gc.Temperature)
	assert.InDelta(t, 0.3, *gc.Temperature, 1e-6)
	assert.EqualValues(t, 100, gc.MaxOutputTokens)
	require.Len(t, gc.Tools, 1)
	assert.NotNil(t, gc.Tools[0].GoogleSearch)
	require.Len(t, gc.SafetySettings, 4)
	for _, s := range gc.SafetySettings {
		assert.Equal(t, genai.HarmBlockThresholdOff, s.Threshold)
	}
	require.NotNil(t, gc.SystemInstruction)
	assert.Equal(t, "be helpful", gc.SystemInstruction.Parts[0].Text)

	plain := buildConfig("", Config{})
	assert.Nil(t, plain.Tools)
	assert.Nil(t, plain.SafetySettings)
	assert.Nil(t, plain.SystemInstruction)
}

func TestFixtureGenerate(t *testing.T) {
	f := NewFixture()
	resp := f.Generate(context.Background(), "plan goa", "sys", PlanConfig())
	require.True(t, resp.Success)
	assert.True(t, resp.SearchUsed)

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(resp.Content), &doc))
	assert.Len(t, doc["days"], 3)

	calls := f.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "plan goa", calls[0].UserMessage)
	assert.Equal(t, PlanModel, calls[0].Config.Model)
}

func TestFixtureFailure(t *testing.T) {
	f := &Fixture{FailWith: "quota exceeded"}
	resp := f.Generate(context.Background(), "x", "y", DefaultConfig())
	assert.False(t, resp.Success)
	assert.Equal(t, "quota exceeded", resp.Error)
	assert.Empty(t, resp.Content)
}

func TestFixtureStream(t *testing.T) {
	f := NewFixture()
	var sb strings.Builder
	for chunk, err := range f.Stream(context.Background(), "hi", "", ChatConfig()) {
		require.NoError(t, err)
		sb.WriteString(chunk)
	}
	assert.Equal(t, FixtureItinerary, sb.String())
}

func TestFixtureStreamStopsEarly(t *testing.T) {
	f := NewFixture()
	n := 0
	for range f.Stream(context.Background(), "hi", "", ChatConfig()) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestFixtureStreamCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f := NewFixture()
	var gotErr error
	for _, err := range f.Stream(ctx, "hi", "", ChatConfig()) {
		gotErr = err
	}
	assert.ErrorIs(t, gotErr, context.Canceled)
}
