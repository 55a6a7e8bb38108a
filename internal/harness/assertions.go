package harness

import (
	"fmt"
	"slices"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string          // Assertion type for categorization
	Expected string          // Human-readable expected outcome
	Actual   string          // Human-readable actual outcome
	Modules  []ModuleOutcome // Registry snapshot for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Modules) > 0 {
		fmt.Fprintf(&buf, "\nModules:\n")
		for i, m := range e.Modules {
			state := "rewritten"
			switch {
			case m.Error != "":
				state = "failed: " + m.Error
			case m.Ready == "":
				state = "not ready"
			case m.Passthrough:
				state = "passthrough"
			}
			fmt.Fprintf(&buf, "  [%d] %s (%s)\n", i+1, m.URL, state)
		}
	}
	return buf.String()
}

// EvaluateAssertions evaluates all assertions against the result.
// Relative assertion URLs resolve against baseURL.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, baseURL string) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error
		url := ""
		if assertion.URL != "" {
			url = absolute(baseURL, assertion.URL)
		}

		switch assertion.Type {
		case AssertPassthrough:
			err = assertPassthrough(result, url)
		case AssertRewritten:
			err = assertRewritten(result, url, assertion.Equals)
		case AssertContains:
			err = assertContains(result, url, assertion.Text)
		case AssertFetchCount:
			err = assertFetchCount(result, url, assertion.Count)
		case AssertError:
			err = assertError(result, assertion)
		case AssertEvaluatedBefore:
			urls := make([]string, len(assertion.URLs))
			for j, u := range assertion.URLs {
				urls[j] = absolute(baseURL, u)
			}
			err = assertEvaluatedBefore(result, urls)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	// A failed entry nobody expected is a failure in its own right.
	if !hasAssertion(assertions, AssertError) {
		for _, e := range result.Entries {
			if e.Error != "" {
				errors = append(errors, fmt.Sprintf("entry %s failed: %s", e.Entry, e.Error))
			}
		}
	}
	return errors
}

func hasAssertion(assertions []Assertion, typ string) bool {
	return slices.ContainsFunc(assertions, func(a Assertion) bool { return a.Type == typ })
}

func assertPassthrough(result *Result, url string) error {
	m, ok := result.Module(url)
	if ok && m.Passthrough {
		return nil
	}
	return &AssertionError{
		Type:     AssertPassthrough,
		Expected: fmt.Sprintf("%s loaded natively", url),
		Actual:   describe(m, ok),
		Modules:  result.Modules,
	}
}

func assertRewritten(result *Result, url string, equals *string) error {
	m, ok := result.Module(url)
	if !ok || m.Passthrough || m.Ready == "" {
		return &AssertionError{
			Type:     AssertRewritten,
			Expected: fmt.Sprintf("%s rewritten", url),
			Actual:   describe(m, ok),
			Modules:  result.Modules,
		}
	}
	if equals != nil && m.Rewritten != *equals {
		return &AssertionError{
			Type:     AssertRewritten,
			Expected: fmt.Sprintf("%s rewritten to %q", url, *equals),
			Actual:   fmt.Sprintf("%q", m.Rewritten),
		}
	}
	return nil
}

func assertContains(result *Result, url, text string) error {
	m, ok := result.Module(url)
	if ok && strings.Contains(m.Rewritten, text) {
		return nil
	}
	actual := describe(m, ok)
	if ok && m.Rewritten != "" {
		actual = fmt.Sprintf("%q", m.Rewritten)
	}
	return &AssertionError{
		Type:     AssertContains,
		Expected: fmt.Sprintf("%s rewritten source containing %q", url, text),
		Actual:   actual,
	}
}

func assertFetchCount(result *Result, url string, count int) error {
	if got := result.Fetches[url]; got != count {
		return &AssertionError{
			Type:     AssertFetchCount,
			Expected: fmt.Sprintf("%s fetched %d times", url, count),
			Actual:   fmt.Sprintf("fetched %d times", got),
		}
	}
	return nil
}

func assertError(result *Result, a Assertion) error {
	var seen []string
	for _, e := range result.Entries {
		if e.Error == "" {
			continue
		}
		if (a.Code == "" || e.Code == a.Code) && strings.Contains(e.Error, a.Text) {
			return nil
		}
		seen = append(seen, fmt.Sprintf("%s: %s", e.Code, e.Error))
	}
	actual := "no entry failed"
	if len(seen) > 0 {
		actual = strings.Join(seen, "; ")
	}
	return &AssertionError{
		Type:     AssertError,
		Expected: fmt.Sprintf("an entry failing with code %q and message containing %q", a.Code, a.Text),
		Actual:   actual,
	}
}

// assertEvaluatedBefore checks urls were evaluated in the given order.
// Other modules may be evaluated in between.
func assertEvaluatedBefore(result *Result, urls []string) error {
	last := -1
	for _, url := range urls {
		pos := slices.Index(result.Evaluated, url)
		if pos == -1 || pos <= last {
			return &AssertionError{
				Type:     AssertEvaluatedBefore,
				Expected: strings.Join(urls, " before "),
				Actual:   "evaluation order " + strings.Join(result.Evaluated, ", "),
			}
		}
		last = pos
	}
	return nil
}

func describe(m ModuleOutcome, ok bool) string {
	switch {
	case !ok:
		return "no record"
	case m.Error != "":
		return "failed: " + m.Error
	case m.Ready == "":
		return "not ready"
	case m.Passthrough:
		return "loaded natively"
	}
	return "rewritten"
}

