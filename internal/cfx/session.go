package cfx

import (
	"embed"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/google/uuid"

	cfderror "github.com/msto63/cfdkit/foundation/core/error"
)

// Session placeholders
const (
	PlaceholderCFX     = "__cfxfilename__"
	PlaceholderCCL     = "__cclfilename__"
	PlaceholderDef     = "__deffilename__"
	PlaceholderVersion = "__version__"
)

//go:embed sessions/*.pre
var sessionFS embed.FS

var placeholderPattern = regexp.MustCompile(`__[a-z]+__`)

// LoadSession returns the text of a session template. A file of the same
// name in dir takes precedence over the built-in one.
func LoadSession(dir, name string) (string, error) {
	if dir != "" {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err == nil {
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			return "", cfderror.Wrap(err, "failed to read session template").WithCode(cfderror.CodeInvalidInput)
		}
	}
	data, err := sessionFS.ReadFile("sessions/" + name)
	if err != nil {
		return "", cfderror.Newf(cfderror.CodeNotFound, "unknown session template: %s", name)
	}
	return string(data), nil
}

// RenderSession replaces every placeholder of template with its value.
// Each parameter must occur in the template and no placeholder may remain.
func RenderSession(template string, params map[string]string) (string, error) {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := template
	for _, k := range keys {
		if !strings.Contains(out, k) {
			return "", cfderror.Newf(cfderror.CodeInvalidFormat, "session template has no placeholder %s", k).
				WithDetail("placeholder", k)
		}
		out = strings.ReplaceAll(out, k, params[k])
	}
	if left := placeholderPattern.FindString(out); left != "" {
		return "", cfderror.Newf(cfderror.CodeInvalidFormat, "session placeholder %s has no value", left).
			WithDetail("placeholder", left)
	}
	return out, nil
}

// writeSession renders a template into a uniquely named file in dir
func writeSession(dir, text string) (string, error) {
	if dir == "" {
		dir = os.TempDir()
	}
	path := filepath.Join(dir, "cfdkit-"+uuid.NewString()+".pre")
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", cfderror.Wrap(err, "failed to write session file").WithCode(cfderror.CodeEnvironmentError)
	}
	return path, nil
}
