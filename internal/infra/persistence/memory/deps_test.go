package memory

import (
	"strings"
	"testing"

	"clonetrack/testutil"
)

func TestImportsAreDomainOrStdlib(t *testing.T) {
	testutil.AssertNoDirectImports(t, ".", func(p string) bool {
		return strings.HasPrefix(p, testutil.ModulePath+"/") && p != testutil.ModulePath+"/pkg/domain"
	}, "the memory store depends on the domain model only")
	testutil.AssertNoDirectImports(t, ".", testutil.ThirdPartyImport, "the memory store is stdlib only")
}
