package executor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hiveline/hiveline/internal/sqltext"
)

// varPattern matches {{ variable }} syntax.
var varPattern = regexp.MustCompile(`\{\{\s*([^}]+?)\s*\}\}`)

// interpolateParams recursively interpolates variables in step parameters.
func (e *Executor) interpolateParams(params map[string]any, rctx *runContext) (map[string]any, error) {
	result := make(map[string]any)

	for k, v := range params {
		interpolated, err := e.interpolateValue(v, rctx)
		if err != nil {
			return nil, fmt.Errorf("parameter '%s': %w", k, err)
		}
		result[k] = interpolated
	}

	return result, nil
}

// interpolateValue interpolates variables in a single value.
func (e *Executor) interpolateValue(v any, rctx *runContext) (any, error) {
	switch val := v.(type) {
	case string:
		return e.interpolateString(val, rctx)

	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			interpolated, err := e.interpolateValue(item, rctx)
			if err != nil {
				return nil, err
			}
			result[i] = interpolated
		}
		return result, nil

	case map[string]any:
		result := make(map[string]any)
		for k, item := range val {
			interpolated, err := e.interpolateValue(item, rctx)
			if err != nil {
				return nil, err
			}
			result[k] = interpolated
		}
		return result, nil

	default:
		return v, nil
	}
}

// interpolateString replaces {{ var }} patterns with their values.
func (e *Executor) interpolateString(s string, rctx *runContext) (any, error) {
	// A string that is exactly one variable reference keeps its type.
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "{{") && strings.HasSuffix(trimmed, "}}") {
		inner := strings.TrimSpace(trimmed[2 : len(trimmed)-2])
		if !strings.Contains(inner, "{{") {
			return e.resolveVariable(inner, rctx)
		}
	}

	result := varPattern.ReplaceAllStringFunc(s, func(match string) string {
		inner := varPattern.FindStringSubmatch(match)
		if len(inner) < 2 {
			return match
		}

		val, err := e.resolveVariable(strings.TrimSpace(inner[1]), rctx)
		if err != nil || val == nil {
			return match
		}

		return fmt.Sprintf("%v", val)
	})

	return result, nil
}

// resolveVariable resolves a variable expression, applying a filter if
// one follows the name.
func (e *Executor) resolveVariable(expr string, rctx *runContext) (any, error) {
	expr = strings.TrimSpace(expr)

	if idx := strings.Index(expr, "|"); idx > 0 {
		varName := strings.TrimSpace(expr[:idx])
		filter := strings.TrimSpace(expr[idx+1:])
		return e.applyFilter(varName, filter, rctx)
	}

	return e.lookupVariable(expr, rctx), nil
}

// lookupVariable looks up a variable by name or dotted path.
func (e *Executor) lookupVariable(name string, rctx *runContext) any {
	if val, ok := rctx.Registered[name]; ok {
		return val
	}

	if val, ok := rctx.Vars[name]; ok {
		return val
	}

	// Dotted paths (e.g., total.data.row_count, env.HOME)
	if strings.Contains(name, ".") {
		parts := strings.Split(name, ".")
		var current any = rctx.Vars

		for _, part := range parts {
			switch c := current.(type) {
			case map[string]any:
				current = c[part]
			case map[string]string:
				current = c[part]
			default:
				return nil
			}

			if current == nil {
				return nil
			}
		}

		return current
	}

	return nil
}

// applyFilter applies a filter to a value.
func (e *Executor) applyFilter(varName, filter string, rctx *runContext) (any, error) {
	val := e.lookupVariable(varName, rctx)

	filterName := filter
	var filterArg string

	if idx := strings.Index(filter, "("); idx > 0 {
		filterName = strings.TrimSpace(filter[:idx])
		argPart := filter[idx+1:]
		if endIdx := strings.LastIndex(argPart, ")"); endIdx > 0 {
			filterArg = strings.TrimSpace(argPart[:endIdx])
			filterArg = strings.Trim(filterArg, "'\"")
		}
	}

	switch filterName {
	case "default":
		if val == nil || val == "" {
			return filterArg, nil
		}
		return val, nil

	case "lower":
		if s, ok := val.(string); ok {
			return strings.ToLower(s), nil
		}
		return val, nil

	case "upper":
		if s, ok := val.(string); ok {
			return strings.ToUpper(s), nil
		}
		return val, nil

	case "trim":
		if s, ok := val.(string); ok {
			return strings.TrimSpace(s), nil
		}
		return val, nil

	case "string":
		return fmt.Sprintf("%v", val), nil

	case "int":
		switch v := val.(type) {
		case int:
			return v, nil
		case int64:
			return int(v), nil
		case float64:
			return int(v), nil
		case string:
			var i int
			_, _ = fmt.Sscanf(v, "%d", &i)
			return i, nil
		}
		return 0, nil

	case "first":
		if slice, ok := val.([]any); ok && len(slice) > 0 {
			return slice[0], nil
		}
		return nil, nil

	case "last":
		if slice, ok := val.([]any); ok && len(slice) > 0 {
			return slice[len(slice)-1], nil
		}
		return nil, nil

	case "length", "count":
		switch v := val.(type) {
		case string:
			return len(v), nil
		case []any:
			return len(v), nil
		case map[string]any:
			return len(v), nil
		}
		return 0, nil

	case "join":
		if slice, ok := val.([]any); ok {
			sep := filterArg
			if sep == "" {
				sep = ","
			}
			var parts []string
			for _, item := range slice {
				parts = append(parts, fmt.Sprintf("%v", item))
			}
			return strings.Join(parts, sep), nil
		}
		return val, nil

	case "in_list":
		switch v := val.(type) {
		case []any:
			var parts []string
			for _, item := range v {
				parts = append(parts, fmt.Sprintf("%v", item))
			}
			return sqltext.InList(parts), nil
		case []string:
			return sqltext.InList(v), nil
		case string:
			return sqltext.InList(strings.Split(v, ",")), nil
		}
		return val, nil

	default:
		return nil, fmt.Errorf("unknown filter: %s", filterName)
	}
}
