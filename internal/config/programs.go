package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/pandeptwidyaop/window-opener/internal/endpoint"
	"github.com/pandeptwidyaop/window-opener/internal/program"
)

var (
	// ErrPlaceholder is returned for a malformed or unknown {name} placeholder.
	ErrPlaceholder = errors.New("bad placeholder")
	// ErrNoPrograms is returned when the programs file does not exist.
	ErrNoPrograms = errors.New("programs file not found")
)

// EndpointDef describes a remote daemon.
type EndpointDef struct {
	Name  string
	URL   string
	Token string
}

// ActionDef is one configured action before it is bound to an endpoint.
type ActionDef struct {
	Endpoint  string
	Method    string
	Arguments []any
	Options   map[string]any
}

// ProgramDef is a configured program.
type ProgramDef struct {
	Name    string
	Start   []ActionDef
	PreStop []ActionDef
	Stop    []ActionDef
}

// Programs is everything read from the secrets and programs files.
type Programs struct {
	// Token guards the REST API; empty disables it.
	Token     string
	Endpoints []EndpointDef
	Programs  []ProgramDef
}

type secretsFile struct {
	Token   string    `yaml:"token"`
	Secrets yaml.Node `yaml:"secrets"`
}

type programsFile struct {
	Endpoints yaml.Node `yaml:"endpoints"`
	Programs  yaml.Node `yaml:"programs"`
}

type rawEndpoint struct {
	URL   string `yaml:"url"`
	Token string `yaml:"token"`
}

type rawProgram struct {
	Include    string         `yaml:"include"`
	Parameters map[string]any `yaml:"parameters"`
	Start      []rawAction    `yaml:"start"`
	PreStop    []rawAction    `yaml:"prestop"`
	Stop       []rawAction    `yaml:"stop"`
}

type rawAction struct {
	Endpoint  string         `yaml:"endpoint"`
	Method    string         `yaml:"method"`
	Arguments any            `yaml:"arguments"`
	Options   map[string]any `yaml:"options"`
}

// LoadPrograms reads the secrets file, then the programs file with secrets
// substituted into it. Broken endpoint and program entries are logged and
// skipped; only unreadable files fail the load. A missing programs file
// yields ErrNoPrograms along with the secrets that were read.
func LoadPrograms(programsPath, secretsPath string, logger *zap.Logger) (*Programs, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	out := &Programs{}

	secrets, token, err := loadSecrets(secretsPath, logger)
	if err != nil {
		return nil, err
	}
	out.Token = token
	if token == "" {
		logger.Warn("Without token defined in secrets file, the REST endpoints are disabled", zap.String("path", secretsPath))
	}

	var doc programsFile
	found, err := readWithSubstitution(programsPath, secrets, &doc)
	if err != nil {
		return nil, err
	}
	if !found {
		return out, fmt.Errorf("%w: %s", ErrNoPrograms, programsPath)
	}

	err = eachEntry(&doc.Endpoints, func(name string, node *yaml.Node) error {
		var ep rawEndpoint
		if err := node.Decode(&ep); err != nil {
			return err
		}
		if ep.URL == "" || ep.Token == "" {
			logger.Error("Endpoint is missing url, token or both", zap.String("endpoint", name))
			return nil
		}
		out.Endpoints = append(out.Endpoints, EndpointDef{
			Name:  strings.ToLower(name),
			URL:   ep.URL,
			Token: ep.Token,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("endpoints: %w", err)
	}

	baseDir := filepath.Dir(programsPath)
	err = eachEntry(&doc.Programs, func(name string, node *yaml.Node) error {
		var rp rawProgram
		if err := node.Decode(&rp); err != nil {
			logger.Error("Program is corrupt", zap.String("program", name), zap.Error(err))
			return nil
		}
		if rp.Include != "" {
			included, err := loadInclude(baseDir, rp.Include, rp.Parameters)
			if err != nil {
				logger.Error("Included file is missing or corrupt", zap.String("program", name), zap.String("include", rp.Include), zap.Error(err))
				return nil
			}
			rp = *included
		}
		if rp.Start == nil && rp.Stop == nil && rp.PreStop == nil {
			logger.Error("Program doesn't have any defined actions", zap.String("program", name))
			return nil
		}
		out.Programs = append(out.Programs, ProgramDef{
			Name:    name,
			Start:   toActionDefs(rp.Start),
			PreStop: toActionDefs(rp.PreStop),
			Stop:    toActionDefs(rp.Stop),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("programs: %w", err)
	}

	return out, nil
}

func loadSecrets(path string, logger *zap.Logger) (map[string]any, string, error) {
	values := map[string]any{}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("No secrets file, please don't put your secrets in the programs file", zap.String("path", path))
		return values, "", nil
	}
	if err != nil {
		return nil, "", err
	}

	var sf secretsFile
	if err := yaml.Unmarshal(data, &sf); err != nil {
		return nil, "", fmt.Errorf("parse %s: %w", path, err)
	}
	switch sf.Secrets.Kind {
	case 0:
	case yaml.MappingNode:
		if err := sf.Secrets.Decode(&values); err != nil {
			return nil, "", fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		logger.Error("secrets is not a mapping", zap.String("path", path))
	}
	return values, sf.Token, nil
}

func loadInclude(baseDir, include string, params map[string]any) (*rawProgram, error) {
	path := include
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	var rp rawProgram
	found, err := readWithSubstitution(path, params, &rp)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fs.ErrNotExist
	}
	return &rp, nil
}

// readWithSubstitution fills placeholders in the file at path and decodes it
// into out. It reports false when the file does not exist.
func readWithSubstitution(path string, values map[string]any, out any) (bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	text, err := Substitute(string(data), values)
	if err != nil {
		return true, fmt.Errorf("%s: %w", path, err)
	}
	if err := yaml.Unmarshal([]byte(text), out); err != nil {
		return true, fmt.Errorf("parse %s: %w", path, err)
	}
	return true, nil
}

// Substitute replaces {name} with values[name]. Literal braces are written
// {{ and }}.
func Substitute(text string, values map[string]any) (string, error) {
	var b strings.Builder
	b.Grow(len(text))

	for i := 0; i < len(text); i++ {
		c := text[i]
		switch c {
		case '{':
			if i+1 < len(text) && text[i+1] == '{' {
				b.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(text[i+1:], '}')
			if end < 0 {
				return "", fmt.Errorf("%w: unterminated '{' at offset %d", ErrPlaceholder, i)
			}
			name := text[i+1 : i+1+end]
			v, ok := values[name]
			if !ok {
				return "", fmt.Errorf("%w: no value for {%s}", ErrPlaceholder, name)
			}
			fmt.Fprint(&b, v)
			i += end + 1
		case '}':
			if i+1 < len(text) && text[i+1] == '}' {
				b.WriteByte('}')
				i++
				continue
			}
			return "", fmt.Errorf("%w: single '}' at offset %d", ErrPlaceholder, i)
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

// eachEntry walks a YAML mapping in document order.
func eachEntry(node *yaml.Node, fn func(name string, value *yaml.Node) error) error {
	if node.Kind == 0 {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if err := fn(node.Content[i].Value, node.Content[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func toActionDefs(raw []rawAction) []ActionDef {
	defs := make([]ActionDef, 0, len(raw))
	for _, r := range raw {
		ep := strings.ToLower(strings.TrimSpace(r.Endpoint))
		if ep == "" {
			ep = endpoint.LocalName
		}
		var args []any
		switch a := r.Arguments.(type) {
		case nil:
		case []any:
			args = a
		default:
			args = []any{a}
		}
		defs = append(defs, ActionDef{
			Endpoint:  ep,
			Method:    endpoint.NormalizeMethod(r.Method),
			Arguments: args,
			Options:   r.Options,
		})
	}
	return defs
}

// Build turns the definitions into a manager. Actions naming an unknown
// endpoint or a verb not allowed for their role are logged and skipped.
func (p *Programs) Build(local endpoint.Endpoint, logger *zap.Logger, opts ...program.ManagerOption) *program.Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := program.NewManager(local, append([]program.ManagerOption{program.WithLogger(logger)}, opts...)...)

	for _, ep := range p.Endpoints {
		m.CreateEndpoint(ep.Name, ep.URL, ep.Token)
	}

	for _, def := range p.Programs {
		prg := m.CreateProgram(def.Name)
		add := func(kind string, defs []ActionDef, fn func(endpoint.Endpoint, string, []any, endpoint.Options) (*program.Action, error)) {
			for _, a := range defs {
				log := logger.With(zap.String("program", def.Name), zap.String("list", kind), zap.String("method", a.Method))
				ep, ok := m.Endpoint(a.Endpoint)
				if !ok {
					log.Error("Endpoint isn't available", zap.String("endpoint", a.Endpoint))
					continue
				}
				if _, err := fn(ep, a.Method, a.Arguments, endpoint.Options(a.Options)); err != nil {
					log.Error("Skipping action", zap.Error(err))
				}
			}
		}
		add("start", def.Start, prg.AddStartAction)
		add("prestop", def.PreStop, prg.AddPreStopAction)
		add("stop", def.Stop, prg.AddStopAction)
	}
	return m
}
