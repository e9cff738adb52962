package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rowsResult(rows ...map[string]*string) *Result {
	r := NewResult()
	r.SQL = "SELECT DISTINCT v0 FROM (SELECT subject AS v0 FROM data WHERE 1 = 1) AS r"
	r.Rows = rows
	return r
}

func TestAssertCount(t *testing.T) {
	result := rowsResult(map[string]*string{"s": ptr("A")})

	assert.NoError(t, assertCount(result, Assertion{Type: AssertCount, Count: 1}))

	err := assertCount(result, Assertion{Type: AssertCount, Count: 3})
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "3 results", ae.Expected)
	assert.Equal(t, "1 results", ae.Actual)
}

func TestAssertCount_Resources(t *testing.T) {
	result := NewResult()
	result.Resources = []ResourceSnapshot{{Subject: "A"}, {Subject: "B"}}

	assert.NoError(t, assertCount(result, Assertion{Type: AssertCount, Count: 2}))
}

func TestAssertRows(t *testing.T) {
	result := rowsResult(
		map[string]*string{"p": ptr("A"), "a": ptr("30")},
		map[string]*string{"p": ptr("B"), "a": nil},
	)

	t.Run("match", func(t *testing.T) {
		err := assertRows(result, Assertion{Rows: []map[string]*string{
			{"p": ptr("A"), "a": ptr("30")},
			{"p": ptr("B"), "a": nil},
		}})
		assert.NoError(t, err)
	})

	t.Run("order matters", func(t *testing.T) {
		err := assertRows(result, Assertion{Rows: []map[string]*string{
			{"p": ptr("B"), "a": nil},
			{"p": ptr("A"), "a": ptr("30")},
		}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `row 0 = {a=null, p="B"}`)
	})

	t.Run("null is not empty", func(t *testing.T) {
		err := assertRows(result, Assertion{Rows: []map[string]*string{
			{"p": ptr("A"), "a": ptr("30")},
			{"p": ptr("B"), "a": ptr("")},
		}})
		assert.Error(t, err)
	})

	t.Run("length", func(t *testing.T) {
		err := assertRows(result, Assertion{Rows: []map[string]*string{
			{"p": ptr("A"), "a": ptr("30")},
		}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Expected: 1 rows")
		assert.Contains(t, err.Error(), "Actual: 2 rows")
	})
}

func TestAssertContainsRow(t *testing.T) {
	result := rowsResult(
		map[string]*string{"p": ptr("A"), "n": ptr("Alice")},
		map[string]*string{"p": ptr("B"), "n": ptr("Bob")},
	)

	assert.NoError(t, assertContainsRow(result, Assertion{Row: map[string]*string{"p": ptr("B"), "n": ptr("Bob")}}))
	assert.Error(t, assertContainsRow(result, Assertion{Row: map[string]*string{"p": ptr("B")}}))
	assert.Error(t, assertContainsRow(result, Assertion{Row: map[string]*string{"p": ptr("C"), "n": ptr("Carol")}}))
}

func TestAssertResource(t *testing.T) {
	result := NewResult()
	result.Resources = []ResourceSnapshot{
		{Subject: "A", Properties: map[string][]string{"name": {"Alice"}, "tag": {"x", "y"}}},
		{Subject: "B", Properties: map[string][]string{}},
	}

	assert.NoError(t, assertResource(result, Assertion{Subject: "A", Properties: map[string][]string{
		"tag":  {"x", "y"},
		"name": {"Alice"},
	}}))
	assert.NoError(t, assertResource(result, Assertion{Subject: "B"}))

	err := assertResource(result, Assertion{Subject: "A", Properties: map[string][]string{
		"name": {"Alice"},
		"tag":  {"y", "x"},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Assertion failed: resource")

	err = assertResource(result, Assertion{Subject: "C"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "resources [A B]")
}

func TestAssertSQLContains(t *testing.T) {
	result := rowsResult()

	assert.NoError(t, assertSQLContains(result, Assertion{Text: "FROM data"}))

	err := assertSQLContains(result, Assertion{Text: "UNION"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SQL:\n  SELECT DISTINCT")
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	errs := EvaluateAssertions(rowsResult(), []Assertion{
		{Type: AssertCount, Count: 0},
		{Type: "final_state"},
	})

	require.Len(t, errs, 1)
	assert.Equal(t, `assertion[1]: unknown assertion type "final_state"`, errs[0])
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)

	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
