package dbgen

import (
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"testing"
)

var queryNameRe = regexp.MustCompile(`-- name: (\w+) :\w+`)

func queryNames(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	var names []string
	for _, m := range queryNameRe.FindAllStringSubmatch(string(data), -1) {
		names = append(names, m[1])
	}
	sort.Strings(names)
	return names
}

func TestQueryFilesMatchMethods(t *testing.T) {
	sources, err := filepath.Glob(filepath.Join("..", "queries", "*.sql"))
	if err != nil || len(sources) == 0 {
		t.Fatalf("no query sources found: %v", err)
	}

	querier := reflect.TypeOf((*Querier)(nil)).Elem()
	total := 0
	for _, src := range sources {
		base := strings.TrimSuffix(filepath.Base(src), ".sql")
		t.Run(base, func(t *testing.T) {
			want := queryNames(t, src)
			got := queryNames(t, base+".sql.go")
			if !reflect.DeepEqual(want, got) {
				t.Fatalf("%s.sql.go queries %v, source declares %v", base, got, want)
			}
			for _, name := range want {
				if _, ok := querier.MethodByName(name); !ok {
					t.Errorf("Querier is missing %s", name)
				}
			}
		})
		total += len(queryNames(t, src))
	}

	if querier.NumMethod() != total {
		t.Fatalf("Querier has %d methods, query sources declare %d", querier.NumMethod(), total)
	}
}
