package render

import (
	"testing"

	"clonetrack/testutil"
)

func TestRenderersReadOnlyTheModel(t *testing.T) {
	for _, dir := range []string{"dag", "platemap"} {
		testutil.AssertNoDirectImports(t, dir, testutil.InternalImport, "renderers take *domain.Project")
	}
	testutil.AssertNoTransitiveDependency(t, "clonetrack/internal/render/...", testutil.InfraImport, "renderers never touch storage")
}
