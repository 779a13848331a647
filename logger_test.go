package arango

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueryLogPrettyPrint(t *testing.T) {
	ql := &QueryLog{
		Operation: "GET",
		Database:  "test",
		Endpoint:  "/_api/document/users/john",
		Duration:  1234,
	}

	var sb strings.Builder
	ql.PrettyPrint(&sb)

	out := sb.String()
	require.Contains(t, out, "ARANGO")
	require.Contains(t, out, "GET")
	require.Contains(t, out, "1234")
	require.Contains(t, out, "/_api/document/users/john")
	require.True(t, strings.HasSuffix(out, "\n"))
}

func TestQueryLogString(t *testing.T) {
	ql := &QueryLog{Operation: "POST", Endpoint: "/_api/cursor", Duration: 99}

	out := ql.String()
	require.Contains(t, out, "ARANGO")
	require.False(t, strings.HasSuffix(out, "\n"))
}

func TestClean(t *testing.T) {
	require.Equal(t, "FOR u IN users RETURN u", clean("FOR u IN\n  users \t RETURN u"))
	require.Equal(t, "", clean("   "))
}

func TestNewLogger_FallsBackToInfo(t *testing.T) {
	require.NotNil(t, NewLogger("nonsense"))
	require.NotNil(t, NewLogger("debug"))
}
