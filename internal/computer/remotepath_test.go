package computer

import "testing"

func TestIsWindowsPath(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{`C:\Users\User\Desktop\step1.png`, true},
		{`C:/Users/User/Desktop/step1.png`, true},
		{`\\server\share\milestones\step1.png`, true},
		{`D:`, true},
		{`/home/user/milestones/step1.png`, false},
		{`milestones/step1.png`, false},
		{`step1.png`, false},
	}
	for _, tc := range cases {
		if got := IsWindowsPath(tc.path); got != tc.want {
			t.Fatalf("IsWindowsPath(%q)=%v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestSplitRemote(t *testing.T) {
	cases := []struct {
		path, dir, base string
	}{
		{`/home/user/milestones/step1.png`, `/home/user/milestones`, `step1.png`},
		{`C:\Users\User\step1.png`, `C:\Users\User`, `step1.png`},
		{`C:/Users/User/step1.png`, `C:/Users/User`, `step1.png`},
		{`step1.png`, ``, `step1.png`},
	}
	for _, tc := range cases {
		dir, base := SplitRemote(tc.path)
		if dir != tc.dir || base != tc.base {
			t.Fatalf("SplitRemote(%q)=(%q,%q), want (%q,%q)", tc.path, dir, base, tc.dir, tc.base)
		}
	}
}

func TestMkdirCommand(t *testing.T) {
	if got := MkdirCommand(`/tmp/milestones`); got != `mkdir -p "/tmp/milestones"` {
		t.Fatalf("posix mkdir = %q", got)
	}
	if got := MkdirCommand(`C:\Users\User\milestones`); got != `if not exist "C:\Users\User\milestones" mkdir "C:\Users\User\milestones"` {
		t.Fatalf("windows mkdir = %q", got)
	}
}
