package domain

import "testing"

func TestUploadSlot_Encoding(t *testing.T) {
	tests := []struct {
		name string
		slot UploadSlot
		want UploadEncoding
	}{
		{
			name: "form fields select pre-signed POST",
			slot: UploadSlot{UploadURL: "https://s3.test", UploadFields: map[string]string{"key": "k"}},
			want: UploadEncodingFormPost,
		},
		{
			name: "PUT method selects signed URL",
			slot: UploadSlot{UploadURL: "https://gcs.test", UploadMethod: "put"},
			want: UploadEncodingPut,
		},
		{
			name: "signed headers select signed URL",
			slot: UploadSlot{UploadURL: "https://gcs.test", UploadHeaders: map[string]string{"x-amz-acl": "private"}},
			want: UploadEncodingPut,
		},
		{
			name: "bare slot selects authenticated multipart",
			slot: UploadSlot{UploadURL: "https://api.test/v1/file_uploads/1/send"},
			want: UploadEncodingMultipart,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.slot.Encoding(); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestBlockKind_IsAllowed(t *testing.T) {
	if !BlockHeading2.IsAllowed() {
		t.Error("expected heading_2 to be allowed")
	}
	if BlockKind("table").IsAllowed() {
		t.Error("expected table to be dropped")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("héllo", 2); got != "hé" {
		t.Errorf("expected hé, got %q", got)
	}
	if got := Truncate("abc", 10); got != "abc" {
		t.Errorf("expected abc, got %q", got)
	}
	if got := Truncate("abc", 0); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}
