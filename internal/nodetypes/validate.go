package nodetypes

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrUnknownType indica un tipo de nodo no declarado.
var ErrUnknownType = errors.New("nodetypes: unknown node type")

// ValidationError agrupa los problemas encontrados al validar un nodo.
type ValidationError struct {
	Type     string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("nodetypes: invalid %s: %s", e.Type, strings.Join(e.Problems, "; "))
}

// Validate verifica props contra el tipo typeName: obligatorias presentes,
// tipos de valor correctos y propiedades no declaradas solo si el tipo es abierto.
func Validate(typeName string, props map[string]any) error {
	nt, ok := Lookup(typeName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownType, typeName)
	}

	var problems []string
	declared := map[string]bool{}
	for _, def := range nt.Properties() {
		declared[def.Name] = true
		v, present := props[def.Name]
		if !present || v == nil {
			if def.Mandatory {
				problems = append(problems, "missing "+def.Name)
			}
			continue
		}
		if !matches(def, v) {
			problems = append(problems, fmt.Sprintf("%s: expected %s, got %T", def.Name, describe(def), v))
		}
	}

	var extra []string
	for name, v := range props {
		if declared[name] {
			continue
		}
		if !nt.Residual {
			extra = append(extra, "undeclared "+name)
			continue
		}
		if !residualValue(v) {
			extra = append(extra, fmt.Sprintf("%s: unsupported value %T", name, v))
		}
	}
	sort.Strings(extra)
	problems = append(problems, extra...)

	if len(problems) > 0 {
		return &ValidationError{Type: typeName, Problems: problems}
	}
	return nil
}

func describe(def PropertyDef) string {
	if def.Multiple {
		return "multiple " + string(def.Type)
	}
	return string(def.Type)
}

func matches(def PropertyDef, v any) bool {
	if def.Multiple {
		switch def.Type {
		case TypeString:
			_, ok := v.([]string)
			return ok
		case TypeDate:
			_, ok := v.([]time.Time)
			return ok
		case TypeBoolean:
			_, ok := v.([]bool)
			return ok
		}
		return false
	}
	switch def.Type {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeDate:
		_, ok := v.(time.Time)
		return ok
	}
	return false
}

func residualValue(v any) bool {
	switch v.(type) {
	case string, bool, time.Time, int, int64, float64,
		[]string, []bool, []time.Time, []int64, []float64:
		return true
	}
	return false
}

// Coerce normaliza valores leídos de almacenamiento serializado (JSON) a los
// tipos Go esperados por Validate: fechas RFC3339 a time.Time y []any a []string.
// Modifica props in place.
func Coerce(typeName string, props map[string]any) {
	nt, ok := Lookup(typeName)
	if !ok {
		return
	}
	for name, v := range props {
		def, declared := nt.Property(name)
		if declared && def.Type == TypeDate {
			if def.Multiple {
				if list, ok := v.([]any); ok {
					out := make([]time.Time, 0, len(list))
					for _, item := range list {
						if s, ok := item.(string); ok {
							if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
								out = append(out, t)
							}
						}
					}
					props[name] = out
				}
				continue
			}
			if s, ok := v.(string); ok {
				if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
					props[name] = t
				}
			}
			continue
		}
		if list, ok := v.([]any); ok {
			if ss, ok := toStrings(list); ok {
				props[name] = ss
			}
		}
	}
}

func toStrings(list []any) ([]string, bool) {
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// Export serializa todos los tipos declarados a YAML.
func Export() ([]byte, error) {
	type exported struct {
		NodeTypes []*NodeType `yaml:"node_types"`
	}
	return yaml.Marshal(exported{NodeTypes: All()})
}
