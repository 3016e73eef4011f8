package features

import (
	"errors"
	"strings"
	"testing"
)

func TestCanCreateDrive(t *testing.T) {
	f := New(Config{
		EnabledProviders:  []string{"cmis"},
		MaxDrivesPerUser:  1,
		AllowedWorkspaces: []string{"collaboration"},
	})

	ok := DriveTarget{ProviderID: "CMIS", LocalUser: "root", Workspace: "collaboration"}
	if err := f.CanCreateDrive(ok); err != nil {
		t.Fatalf("expected allowed, got %v", err)
	}

	for name, tc := range map[string]struct {
		target DriveTarget
		reason string
	}{
		"provider":  {DriveTarget{ProviderID: "gdrive", Workspace: "collaboration"}, "provider gdrive"},
		"limit":     {DriveTarget{ProviderID: "cmis", LocalUser: "root", Workspace: "collaboration", ExistingDrives: 1}, "limit of 1"},
		"workspace": {DriveTarget{ProviderID: "cmis", Workspace: "system"}, "workspace system"},
	} {
		err := f.CanCreateDrive(tc.target)
		if !errors.Is(err, ErrDenied) {
			t.Fatalf("%s: expected ErrDenied, got %v", name, err)
		}
		if !strings.Contains(err.Error(), tc.reason) {
			t.Fatalf("%s: expected reason %q in %q", name, tc.reason, err.Error())
		}
	}
}

func TestCanCreateDrive_NoRules(t *testing.T) {
	f := New(Config{})
	if err := f.CanCreateDrive(DriveTarget{ProviderID: "x", ExistingDrives: 99}); err != nil {
		t.Fatalf("expected no restrictions, got %v", err)
	}
}

func TestIsAutoSyncEnabled(t *testing.T) {
	f := New(Config{AutoSync: true, AutoSyncExcluded: []string{"cmis"}})
	if f.IsAutoSyncEnabled(DriveTarget{ProviderID: "cmis"}) {
		t.Fatalf("cmis is excluded from autosync")
	}
	if !f.IsAutoSyncEnabled(DriveTarget{ProviderID: "box"}) {
		t.Fatalf("box should autosync")
	}
	if New(Config{}).IsAutoSyncEnabled(DriveTarget{ProviderID: "box"}) {
		t.Fatalf("autosync disabled globally")
	}
}
