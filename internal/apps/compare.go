package apps

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/codex-k8s/kdapps/internal/apptemplate"
	"github.com/codex-k8s/kdapps/internal/plans"
)

// UserDomainToken matches any text when it appears in a template string.
const UserDomainToken = "%USER_DOMAIN%"

// IsTemplateFor reports whether candidate could have been produced by filling this template
// for one of its plans.
func (a *App) IsTemplateFor(candidate map[string]any) bool {
	expected, ok := a.ExpectedFor(candidate)
	if !ok {
		return false
	}
	return Matches(expected, normalizedCandidate(candidate))
}

// ExpectedFor rebuilds the document this template would produce for candidate:
// the plan named by `kuberdock.appPackage.name` filled with the candidate's values.
// The template id is dropped from the result.
func (a *App) ExpectedFor(candidate map[string]any) (map[string]any, bool) {
	cand := normalizedCandidate(candidate)
	kd, ok := cand["kuberdock"].(map[string]any)
	if !ok {
		return nil, false
	}
	pkg, ok := kd["appPackage"].(map[string]any)
	if !ok {
		return nil, false
	}
	name, ok := pkg["name"].(string)
	if !ok {
		return nil, false
	}
	index, err := a.PlanIndex(name)
	if err != nil {
		return nil, false
	}

	values, ok := a.candidateValues(index, cand)
	if !ok {
		return nil, false
	}
	expected, err := a.FilledTemplateForPlan(index, values)
	if err != nil {
		a.logger.Debug("cannot fill template for candidate", "plan", name, "err", err)
		return nil, false
	}
	if expectedKD, ok := expected["kuberdock"].(map[string]any); ok {
		delete(expectedKD, plans.TemplateIDKey)
	}
	if _, ok := cand[apptemplate.AppVariablesKey]; !ok {
		delete(expected, apptemplate.AppVariablesKey)
	}
	return expected, true
}

// candidateValues takes values from appVariables, or infers them from the candidate tree.
func (a *App) candidateValues(index int, cand map[string]any) (apptemplate.Values, bool) {
	if vars, ok := cand[apptemplate.AppVariablesKey].(map[string]any); ok && len(vars) > 0 {
		return apptemplate.Values(vars), true
	}
	doc, err := a.squeeze(index)
	if err != nil {
		return nil, false
	}
	return doc.Infer(cand)
}

func normalizedCandidate(candidate map[string]any) map[string]any {
	cand := plans.CloneDocument(candidate)
	if kd, ok := cand["kuberdock"].(map[string]any); ok {
		delete(kd, plans.TemplateIDKey)
	}
	return cand
}

// Matches compares documents structurally: mappings need equal key sets, sequences equal
// lengths, numbers equal values. A template string containing UserDomainToken matches any
// text in its place.
func Matches(expected, actual any) bool {
	switch e := expected.(type) {
	case map[string]any:
		a, ok := actual.(map[string]any)
		if !ok || len(a) != len(e) {
			return false
		}
		for k, ev := range e {
			av, ok := a[k]
			if !ok || !Matches(ev, av) {
				return false
			}
		}
		return true
	case []any:
		a, ok := actual.([]any)
		if !ok || len(a) != len(e) {
			return false
		}
		for i := range e {
			if !Matches(e[i], a[i]) {
				return false
			}
		}
		return true
	case string:
		a, ok := actual.(string)
		if !ok {
			return false
		}
		return a == e || matchUserDomain(e, a)
	case nil:
		return actual == nil
	}
	if ef, ok := number(expected); ok {
		af, ok := number(actual)
		return ok && ef == af
	}
	return reflect.DeepEqual(expected, actual)
}

func matchUserDomain(pattern, s string) bool {
	if !strings.Contains(pattern, UserDomainToken) {
		return false
	}
	parts := strings.Split(pattern, UserDomainToken)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	re, err := regexp.Compile(`(?s)^` + strings.Join(parts, `.*`) + `$`)
	if err != nil {
		return false
	}
	return re.MatchString(s)
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
