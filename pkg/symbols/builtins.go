package symbols

import "github.com/vocdoc/vocdoc/pkg/model"

// builtinPath marks declarations seeded by the tool rather than found in
// any scanned file.
const builtinPath = "<builtin>"

// Builtins returns a table seeded with the runtime's always-available
// declarations, so references like insert("hi") or <phrase> resolve even
// when no scanned package declares them. The builtin table is consulted
// after every package tier, so a package declaration of the same name
// always shadows the builtin.
func Builtins() *Table {
	table := NewTable()

	builtinActions := []struct {
		name string
		doc  string
		sig  model.Signature
	}{
		{"insert", "Insert text at the cursor", model.Signature{Params: []model.Param{{Name: "text", Type: "str"}}}},
		{"auto_insert", "Insert text, applying formatter state", model.Signature{Params: []model.Param{{Name: "text", Type: "str"}}}},
		{"key", "Press one or more keys", model.Signature{Params: []model.Param{{Name: "key", Type: "str"}}}},
		{"sleep", "Pause the running script", model.Signature{Params: []model.Param{{Name: "duration", Type: "str"}}}},
		{"repeat", "Repeat the last command", model.Signature{Params: []model.Param{{Name: "times", Type: "int"}}}},
		{"mimic", "Simulate a spoken phrase", model.Signature{Params: []model.Param{{Name: "phrase", Type: "str"}}}},
		{"print", "Print to the log", model.Signature{Params: []model.Param{{Name: "obj", Type: "object"}}}},
		{"skip", "Do nothing", model.Signature{}},
	}

	for _, action := range builtinActions {
		sig := action.sig

		table.Add(&model.Declaration{
			Kind:      model.KindAction,
			Name:      action.name,
			Doc:       model.ParseDocString(action.doc),
			Location:  model.Location{Path: builtinPath},
			Signature: &sig,
		})
	}

	builtinCaptures := []struct {
		name string
		doc  string
	}{
		{"number", "A spoken number"},
		{"number_small", "A small spoken number"},
		{"number_signed", "A signed spoken number"},
		{"word", "A single spoken word"},
		{"phrase", "A spoken phrase"},
	}

	for _, capture := range builtinCaptures {
		table.Add(&model.Declaration{
			Kind:     model.KindCapture,
			Name:     capture.name,
			Doc:      model.ParseDocString(capture.doc),
			Location: model.Location{Path: builtinPath},
		})
	}

	builtinSettings := []struct {
		name     string
		doc      string
		typeHint string
		value    string
	}{
		{"speech.timeout", "Seconds of silence that end an utterance", "float", "0.300"},
		{"speech.engine", "Speech engine to use", "str", "wav2letter"},
		{"imgui.scale", "Scale factor for built-in GUI overlays", "float", "1.0"},
	}

	for _, setting := range builtinSettings {
		table.Add(&model.Declaration{
			Kind:      model.KindSetting,
			Name:      setting.name,
			Namespace: NamespaceOf(setting.name),
			Doc:       model.ParseDocString(setting.doc),
			Location:  model.Location{Path: builtinPath},
			TypeHint:  setting.typeHint,
			Value:     setting.value,
		})
	}

	return table
}
