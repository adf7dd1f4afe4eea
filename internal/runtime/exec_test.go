package runtime

import (
	"slices"
	"sort"
	"testing"

	specs "github.com/opencontainers/runtime-spec/specs-go"
)

func TestMergeEnv(t *testing.T) {
	tests := []struct {
		name      string
		base      []string
		overrides []string
		want      []string
	}{
		{
			name:      "override existing key",
			base:      []string{"A=1", "B=2"},
			overrides: []string{"A=override"},
			want:      []string{"A=override", "B=2"},
		},
		{
			name:      "add new key",
			base:      []string{"A=1"},
			overrides: []string{"B=2"},
			want:      []string{"A=1", "B=2"},
		},
		{
			name:      "empty base",
			base:      nil,
			overrides: []string{"A=1"},
			want:      []string{"A=1"},
		},
		{
			name:      "empty overrides",
			base:      []string{"A=1"},
			overrides: nil,
			want:      []string{"A=1"},
		},
		{
			name:      "both empty",
			base:      nil,
			overrides: nil,
			want:      []string{},
		},
		{
			name:      "value with equals sign",
			base:      []string{"CMD=foo=bar"},
			overrides: nil,
			want:      []string{"CMD=foo=bar"},
		},
		{
			name:      "malformed entries skipped",
			base:      []string{"NOEQUALS", "A=1"},
			overrides: []string{"ALSO_BAD", "B=2"},
			want:      []string{"A=1", "B=2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mergeEnv(tt.base, tt.overrides)
			sort.Strings(got)
			sort.Strings(tt.want)

			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d\ngot:  %v\nwant: %v", len(got), len(tt.want), got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNextExecID(t *testing.T) {
	a := nextExecID()
	b := nextExecID()
	if a == b {
		t.Fatalf("nextExecID returned duplicate: %q", a)
	}
	if a == "" || b == "" {
		t.Fatal("nextExecID returned empty string")
	}
}

func TestProcessFor(t *testing.T) {
	base := specs.Process{
		Terminal: true,
		Args:     []string{"sleep", "infinity"},
		Env:      []string{"PATH=/usr/bin", "JAVA_HOME=/azul-crac-jdk"},
		Cwd:      "/home/app",
	}
	trigger := []string{"/home/app/checkpoint.sh", "java", "-jar", "app.jar"}

	t.Run("checkpoint trigger keeps image env", func(t *testing.T) {
		p := processFor(base, nil, "", trigger)
		if p.Terminal {
			t.Error("terminal left enabled")
		}
		if !slices.Equal(p.Args, trigger) {
			t.Errorf("args = %v, want %v", p.Args, trigger)
		}
		if !slices.Equal(p.Env, base.Env) {
			t.Errorf("env = %v, want %v", p.Env, base.Env)
		}
		if p.Cwd != "/home/app" {
			t.Errorf("cwd = %q, want /home/app", p.Cwd)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		p := processFor(base, []string{"JAVA_HOME=/opt/jdk", "CRAC=1"}, "/tmp", trigger)
		got := slices.Sorted(slices.Values(p.Env))
		want := []string{"CRAC=1", "JAVA_HOME=/opt/jdk", "PATH=/usr/bin"}
		if !slices.Equal(got, want) {
			t.Errorf("env = %v, want %v", got, want)
		}
		if p.Cwd != "/tmp" {
			t.Errorf("cwd = %q, want /tmp", p.Cwd)
		}
	})

	if !base.Terminal || base.Args[0] != "sleep" {
		t.Error("base process was modified")
	}
}
