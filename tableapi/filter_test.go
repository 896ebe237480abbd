package tableapi_test

import (
	"net/url"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/raywall/fast-data-interface/tableapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, params url.Values, hints tableapi.FieldHints) (expression.Expression, bool) {
	t.Helper()
	cond, ok := tableapi.BuildFilter(params, hints, "RowKey")
	if !ok {
		return expression.Expression{}, false
	}
	expr, err := expression.NewBuilder().WithFilter(cond).Build()
	require.NoError(t, err)
	return expr, true
}

func TestBuildFilter_NoClauses(t *testing.T) {
	t.Parallel()

	_, ok := render(t, url.Values{
		"_sort":     {"name"},
		"_start":    {"0"},
		"name_like": {"al"},
	}, nil)

	assert.False(t, ok)
}

func TestBuildFilter_Comparators(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"status":     "#0 = :0",
		"status_ne":  "#0 <> :0",
		"status_gte": "#0 >= :0",
		"status_lte": "#0 <= :0",
	}
	for key, want := range cases {
		expr, ok := render(t, url.Values{key: {"x"}}, nil)
		require.True(t, ok, key)
		assert.Equal(t, want, *expr.Filter(), key)
		assert.Equal(t, "status", expr.Names()["#0"], key)
		assert.Equal(t, &types.AttributeValueMemberS{Value: "x"}, expr.Values()[":0"], key)
	}
}

func TestBuildFilter_ClausesAreAndedInKeyOrder(t *testing.T) {
	t.Parallel()

	expr, ok := render(t, url.Values{
		"name":    {"Bob"},
		"age_gte": {"26"},
	}, tableapi.FieldHints{"age": tableapi.HintInteger})

	require.True(t, ok)
	assert.Equal(t, "(#0 >= :0) AND (#1 = :1)", *expr.Filter())
	assert.Equal(t, "age", expr.Names()["#0"])
	assert.Equal(t, &types.AttributeValueMemberN{Value: "26"}, expr.Values()[":0"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "Bob"}, expr.Values()[":1"])
}

func TestBuildFilter_IDValuesAreOred(t *testing.T) {
	t.Parallel()

	expr, ok := render(t, url.Values{"id": {"1", "2"}}, nil)

	require.True(t, ok)
	assert.Equal(t, "(#0 = :0) OR (#0 = :1)", *expr.Filter())
	assert.Equal(t, "RowKey", expr.Names()["#0"])
}

func TestBuildFilter_IDSuffixTargetsRowKey(t *testing.T) {
	t.Parallel()

	expr, ok := render(t, url.Values{"id_ne": {"1"}}, nil)

	require.True(t, ok)
	assert.Equal(t, "#0 <> :0", *expr.Filter())
	assert.Equal(t, "RowKey", expr.Names()["#0"])
}

func TestBuildFilter_BooleanHint(t *testing.T) {
	t.Parallel()

	hints := tableapi.FieldHints{"active": tableapi.HintBoolean}

	expr, _ := render(t, url.Values{"active": {"TRUE"}}, hints)
	assert.Equal(t, &types.AttributeValueMemberBOOL{Value: true}, expr.Values()[":0"])

	expr, _ = render(t, url.Values{"active": {"notabool"}}, hints)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "notabool"}, expr.Values()[":0"])
}

func TestBuildFilter_DateAndIntegerHints(t *testing.T) {
	t.Parallel()

	hints := tableapi.FieldHints{
		"born": tableapi.HintDate,
		"age":  tableapi.HintInteger,
	}

	expr, _ := render(t, url.Values{"born_gte": {"2020-01-02"}}, hints)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "2020-01-02T00:00:00.000000000Z"}, expr.Values()[":0"])

	expr, _ = render(t, url.Values{"age": {"twelve"}}, hints)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "twelve"}, expr.Values()[":0"])
}

func TestBuildFilter_FieldWithDotIsNotAPath(t *testing.T) {
	t.Parallel()

	expr, _ := render(t, url.Values{"address.city": {"Recife"}}, nil)

	assert.Equal(t, "address.city", expr.Names()["#0"])
}
