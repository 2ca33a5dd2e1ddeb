package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/0xPolygon/pegcore/log"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/valyala/fasttemplate"
)

const (
	startTag = "{{"
	endTag   = "}}"
	// bare vars (A = {{B}}) are not valid TOML, they are quoted and marked while parsing
	bareMark = ":bare"
)

var (
	ErrCycleVars                 = errors.New("cycle vars")
	ErrMissingVars               = errors.New("missing vars")
	ErrUnsupportedConfigFileType = errors.New("unsupported config file type")

	bareVarRe       = regexp.MustCompile(`=\s*\{\{([^}:]+)\}\}`)
	quotedBareVarRe = regexp.MustCompile(`"\{\{([^}:]+)` + bareMark + `\}\}"`)
	bareMarkRe      = regexp.MustCompile(`\{\{([^}:]+)` + bareMark + `\}\}`)
)

// FileData is the content of a config file, Name is used in errors
type FileData struct {
	Name    string
	Content string
}

// Renderer merges TOML files, later ones overriding earlier ones, and
// resolves the {{Var}} placeholders of the result. A placeholder takes the
// value of the environment variable <EnvPrefix>_<Var> or, if not set, of the
// top level key Var
type Renderer struct {
	Files     []FileData
	EnvPrefix string
	// LookupEnv resolves environment variables, os.LookupEnv by default
	LookupEnv func(key string) (string, bool)
}

// NewRenderer creates a Renderer reading the process environment
func NewRenderer(files []FileData, envPrefix string) *Renderer {
	return &Renderer{
		Files:     files,
		EnvPrefix: envPrefix,
		LookupEnv: os.LookupEnv,
	}
}

// Render merges the files and resolves the placeholders
func (r *Renderer) Render() (string, error) {
	merged, err := r.Merge()
	if err != nil {
		return "", err
	}
	return r.Resolve(merged)
}

// Merge returns the TOML merge of the files, with the placeholders untouched
func (r *Renderer) Merge() (string, error) {
	k := koanf.New(".")
	for _, file := range r.Files {
		if err := k.Load(rawbytes.Provider([]byte(markBareVars(file.Content))), toml.Parser()); err != nil {
			return "", fmt.Errorf("error loading config %s: %w", file.Name, err)
		}
	}
	merged, err := k.Marshal(toml.Parser())
	if err != nil {
		return "", fmt.Errorf("error marshalling merged config: %w", err)
	}
	return unquoteBareVars(string(merged)), nil
}

// Resolve replaces the placeholders of data. A placeholder referencing a
// key that is not defined fails with ErrMissingVars, a set of placeholders
// referencing each other fails with ErrCycleVars
func (r *Renderer) Resolve(data string) (string, error) {
	current := data
	pending := placeholders(current)
	for len(pending) > 0 {
		values, err := r.definedValues(current)
		if err != nil {
			return data, err
		}
		if missing := r.missingVars(pending, values); len(missing) > 0 {
			return current, fmt.Errorf("%w: %v", ErrMissingVars, missing)
		}

		tpl, err := fasttemplate.NewTemplate(current, startTag, endTag)
		if err != nil {
			return data, fmt.Errorf("error parsing config template: %w", err)
		}
		next := tpl.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
			if v, ok := r.lookup(tag, values); ok {
				return w.Write([]byte(v))
			}
			return w.Write([]byte(startTag + tag + endTag))
		})
		next = bareMarkRe.ReplaceAllString(next, startTag+"${1}"+endTag)

		nextPending := placeholders(next)
		if next == current || sameVars(nextPending, pending) {
			log.Debugf("unresolved config vars: %v", nextPending)
			return data, fmt.Errorf("%w: %v", ErrCycleVars, nextPending)
		}
		current, pending = next, nextPending
	}
	return current, nil
}

func (r *Renderer) lookup(tag string, values map[string]interface{}) (string, bool) {
	if r.LookupEnv != nil {
		if v, ok := r.LookupEnv(r.envKey(tag)); ok {
			return v, true
		}
	}
	v, ok := values[tag]
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%v", v), true
}

func (r *Renderer) envKey(tag string) string {
	return r.EnvPrefix + "_" + strings.ReplaceAll(tag, ".", "_")
}

func (r *Renderer) missingVars(vars []string, values map[string]interface{}) []string {
	var missing []string
	for _, v := range vars {
		if _, ok := r.lookup(v, values); !ok {
			missing = append(missing, v)
		}
	}
	return missing
}

// definedValues returns the flattened keys of data, the bare placeholders as marked strings
func (r *Renderer) definedValues(data string) (map[string]interface{}, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider([]byte(markBareVars(data))), toml.Parser()); err != nil {
		return nil, fmt.Errorf("error parsing rendered config: %w", err)
	}
	return k.All(), nil
}

func markBareVars(data string) string {
	return bareVarRe.ReplaceAllString(data, `= "`+startTag+"${1}"+bareMark+endTag+`"`)
}

func unquoteBareVars(data string) string {
	return quotedBareVarRe.ReplaceAllString(data, startTag+"${1}"+endTag)
}

// placeholders returns the distinct vars referenced in data, sorted
func placeholders(data string) []string {
	tpl, err := fasttemplate.NewTemplate(data, startTag, endTag)
	if err != nil {
		return nil
	}
	seen := map[string]struct{}{}
	tpl.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
		seen[strings.TrimSuffix(tag, bareMark)] = struct{}{}
		return 0, nil
	})
	vars := make([]string, 0, len(seen))
	for v := range seen {
		vars = append(vars, v)
	}
	sort.Strings(vars)
	return vars
}

func sameVars(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// convertToToml converts the content of a file of type fileType to TOML
func convertToToml(content, fileType string) (string, error) {
	switch strings.ToLower(fileType) {
	case ConfigType:
		return content, nil
	case "json":
		k := koanf.New(".")
		if err := k.Load(rawbytes.Provider([]byte(content)), json.Parser()); err != nil {
			return "", fmt.Errorf("error loading json config: %w", err)
		}
		out, err := toml.Parser().Marshal(k.Raw())
		if err != nil {
			return "", fmt.Errorf("error converting json config to toml: %w", err)
		}
		return string(out), nil
	case "yml", "yaml", "ini":
		return "", fmt.Errorf("%w: %s", ErrUnsupportedConfigFileType, fileType)
	default:
		log.Warnf("config file type %s unknown, assuming toml", fileType)
		return content, nil
	}
}
