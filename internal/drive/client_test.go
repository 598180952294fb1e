package drive

import "testing"

func TestParseFolderID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1AbCdEfGh", "1AbCdEfGh"},
		{"https://drive.google.com/drive/folders/1AbCdEfGh", "1AbCdEfGh"},
		{"https://drive.google.com/drive/folders/1AbCdEfGh?usp=sharing", "1AbCdEfGh"},
		{"https://drive.google.com/drive/u/0/folders/1AbCdEfGh/", "1AbCdEfGh"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ParseFolderID(tt.in); got != tt.want {
			t.Errorf("ParseFolderID(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
