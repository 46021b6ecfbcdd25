package bot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/user/archive-bot-go/internal/model"
)

// randomCase flips the case of every letter selected by mask
func randomCase(s string, mask uint) string {
	var b strings.Builder
	for i, r := range s {
		if mask&(1<<uint(i)) != 0 {
			b.WriteString(strings.ToUpper(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Every documented boolean token parses to its value in any letter case
func TestProperty_ParseBoolTokens(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	tokens := map[string]bool{
		"1": true, "true": true, "on": true,
		"0": false, "false": false, "off": false,
	}
	names := make([]interface{}, 0, len(tokens))
	for name := range tokens {
		names = append(names, name)
	}

	properties.Property("documented tokens parse in any case", prop.ForAll(
		func(token string, mask uint) bool {
			got, err := ParseBool(randomCase(token, mask))
			return err == nil && got == tokens[token]
		},
		gen.OneConstOf(names...),
		gen.UIntRange(0, 31),
	))

	properties.Property("any other text is an invalid option value", prop.ForAll(
		func(text string) bool {
			if _, known := tokens[strings.ToLower(text)]; known {
				return true
			}
			_, err := ParseBool(text)
			return errors.Is(err, ErrInvalidOptionValue)
		},
		gen.AnyString(),
	))

	properties.TestingRun(t)
}

func TestParseBool_Cases(t *testing.T) {
	for _, text := range []string{"TRUE", "On", "OFF", "False", "1", "0"} {
		if _, err := ParseBool(text); err != nil {
			t.Errorf("ParseBool(%q) error = %v", text, err)
		}
	}
	for _, text := range []string{"", "yes", "no", "2", "truee", "o n", " true", "off\n"} {
		if _, err := ParseBool(text); !errors.Is(err, ErrInvalidOptionValue) {
			t.Errorf("ParseBool(%q) error = %v, want ErrInvalidOptionValue", text, err)
		}
	}
}

func TestParseMediaList(t *testing.T) {
	tests := []struct {
		text    string
		want    model.MediaList
		wantErr bool
	}{
		{"document photo", model.MediaList{model.MediaDocument, model.MediaPhoto}, false},
		{"photo", model.MediaList{model.MediaPhoto}, false},
		{"  PHOTO   document ", model.MediaList{model.MediaPhoto, model.MediaDocument}, false},
		{"photo photo", model.MediaList{model.MediaPhoto}, false},
		{"photo video", nil, true},
		{"", nil, true},
	}
	for _, tt := range tests {
		got, err := ParseMediaList(tt.text)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidMediaKind) {
				t.Errorf("ParseMediaList(%q) error = %v, want ErrInvalidMediaKind", tt.text, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMediaList(%q) error = %v", tt.text, err)
			continue
		}
		if got.String() != tt.want.String() {
			t.Errorf("ParseMediaList(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

// A list with at least one unknown token is rejected as a whole
func TestProperty_ParseMediaListAllOrNothing(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("one unknown token fails the list", prop.ForAll(
		func(valid int, unknown string) bool {
			tokens := make([]string, 0, valid+1)
			for i := 0; i < valid; i++ {
				tokens = append(tokens, string(model.MediaKinds[i%len(model.MediaKinds)]))
			}
			tokens = append(tokens, unknown)
			_, err := ParseMediaList(strings.Join(tokens, " "))
			return errors.Is(err, ErrInvalidMediaKind)
		},
		gen.IntRange(0, 5),
		gen.RegexMatch(`[a-z]{3,10}`).SuchThat(func(s string) bool {
			return !model.MediaKind(s).Valid()
		}),
	))

	properties.TestingRun(t)
}

func TestCommandArgument(t *testing.T) {
	arg, err := CommandArgument(&Event{Message: commandMessage(privateChat(), "/set_name  holiday 2024 ")})
	if err != nil || arg != "holiday 2024" {
		t.Errorf("CommandArgument() = %q, %v, want %q", arg, err, "holiday 2024")
	}

	if _, err := CommandArgument(&Event{Message: commandMessage(privateChat(), "/set_name")}); !errors.Is(err, ErrMissingArgument) {
		t.Errorf("CommandArgument() error = %v, want ErrMissingArgument", err)
	}
}

func TestResolveBoolOption(t *testing.T) {
	ctx := context.Background()

	t.Run("valid value", func(t *testing.T) {
		st, m := newFakeStore(), newFakeMessenger()
		sess, _ := st.Begin(ctx)

		sub, value, err := ResolveBoolOption(ctx, m, &Event{Message: commandMessage(privateChat(), "/verbose on")}, sess)
		if err != nil || sub == nil || !value {
			t.Fatalf("ResolveBoolOption() = %v, %v, %v", sub, value, err)
		}
		if len(m.texts()) != 0 {
			t.Errorf("responses = %v, want none", m.texts())
		}
	})

	for _, text := range []string{"/verbose maybe", "/verbose"} {
		t.Run(text, func(t *testing.T) {
			st, m := newFakeStore(), newFakeMessenger()
			sess, _ := st.Begin(ctx)

			sub, _, err := ResolveBoolOption(ctx, m, &Event{Message: commandMessage(privateChat(), text)}, sess)
			if err != nil {
				t.Fatalf("ResolveBoolOption() error = %v", err)
			}
			if sub != nil {
				t.Errorf("ResolveBoolOption() subscriber = %v, want nil", sub)
			}
			if got := m.texts(); len(got) != 1 || got[0] != boolUsageHint {
				t.Errorf("responses = %v, want usage hint", got)
			}
		})
	}
}

func TestResolveMediaOption_InvalidSendsHint(t *testing.T) {
	ctx := context.Background()
	st, m := newFakeStore(), newFakeMessenger()
	sess, _ := st.Begin(ctx)

	sub, list, err := ResolveMediaOption(ctx, m, &Event{Message: commandMessage(privateChat(), "/accept photo sticker")}, sess)
	if err != nil {
		t.Fatalf("ResolveMediaOption() error = %v", err)
	}
	if sub != nil || list != nil {
		t.Errorf("ResolveMediaOption() = %v, %v, want nil sentinel", sub, list)
	}
	if got := m.texts(); len(got) != 1 || got[0] != mediaUsageHint {
		t.Errorf("responses = %v, want media usage hint", got)
	}
}
