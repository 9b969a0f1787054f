package aws

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/platform-tools/platform-cli/internal/config"
	"github.com/platform-tools/platform-cli/internal/models"
)

func TestClassifyToken(t *testing.T) {
	cases := []struct {
		token string
		want  TokenKind
	}{
		{"i-0123456789abcdef0", TokenInstanceID},
		{"i-12345678", TokenInstanceID},
		{"i-1234567", TokenName},            // too short
		{"i-0123456789abcdef01", TokenName}, // too long
		{"i-0123456789ABCDEF0", TokenName},  // uppercase hex is not an ID
		{"i-0123456789abcdefg", TokenName},
		{"web-server", TokenName},
		{"", TokenName},
	}
	for _, tc := range cases {
		if got := ClassifyToken(tc.token); got != tc.want {
			t.Errorf("ClassifyToken(%q) = %v, want %v", tc.token, got, tc.want)
		}
	}
}

func resolverFake() *fakeEC2 {
	f := &fakeEC2{}
	f.instances = append(f.instances,
		makeInstance("i-0aaaaaaaaaaaaaaa1", "running", "t3.micro", ownedTags(map[string]string{config.NameKey: "web"})),
		makeInstance("i-0bbbbbbbbbbbbbbb2", "stopped", "t3.micro", ownedTags(map[string]string{config.NameKey: "web"})),
		makeInstance("i-0ccccccccccccccc3", "terminated", "t3.micro", ownedTags(map[string]string{config.NameKey: "web"})),
		makeInstance("i-0ddddddddddddddd4", "running", "t2.small", ownedTags(map[string]string{config.NameKey: "db"})),
		makeInstance("i-0eeeeeeeeeeeeeee5", "running", "t3.micro", map[string]string{config.NameKey: "web"}),
	)
	return f
}

func TestResolveNameExcludesTerminatedAndForeign(t *testing.T) {
	sess := newTestSession(resolverFake(), nil, nil, nil, nil)

	ids, err := sess.ResolveName(context.Background(), "web")
	if err != nil {
		t.Fatalf("ResolveName: %v", err)
	}
	want := []string{"i-0aaaaaaaaaaaaaaa1", "i-0bbbbbbbbbbbbbbb2"}
	if !reflect.DeepEqual(ids, want) {
		t.Fatalf("ResolveName(web) = %v, want %v", ids, want)
	}
}

func TestResolveTokensMixed(t *testing.T) {
	sess := newTestSession(resolverFake(), nil, nil, nil, nil)

	res, err := sess.ResolveTokens(context.Background(),
		[]string{"db", "i-0aaaaaaaaaaaaaaa1", "web", "ghost"})
	if err != nil {
		t.Fatalf("ResolveTokens: %v", err)
	}
	// first-seen order, the literal ID deduplicated against the web match
	want := []string{"i-0ddddddddddddddd4", "i-0aaaaaaaaaaaaaaa1", "i-0bbbbbbbbbbbbbbb2"}
	if !reflect.DeepEqual(res.IDs, want) {
		t.Fatalf("IDs = %v, want %v", res.IDs, want)
	}
	if !reflect.DeepEqual(res.Unmatched, []string{"ghost"}) {
		t.Fatalf("Unmatched = %v", res.Unmatched)
	}
	if len(res.ByName["web"]) != 2 {
		t.Fatalf("ByName[web] = %v", res.ByName["web"])
	}
}

func TestResolveSinglePassesIDThrough(t *testing.T) {
	// a literal ID is never looked up, even if it does not exist
	sess := newTestSession(&fakeEC2{}, nil, nil, nil, nil)

	id, err := sess.ResolveSingle(context.Background(), "i-0123456789abcdef0", "start")
	if err != nil {
		t.Fatalf("ResolveSingle: %v", err)
	}
	if id != "i-0123456789abcdef0" {
		t.Fatalf("unexpected id %s", id)
	}
}

func TestResolveSingleAmbiguous(t *testing.T) {
	sess := newTestSession(resolverFake(), nil, nil, nil, nil)

	_, err := sess.ResolveSingle(context.Background(), "web", "stop")
	var ambErr *models.AmbiguousTargetError
	if !errors.As(err, &ambErr) {
		t.Fatalf("expected AmbiguousTargetError, got %v", err)
	}
	if ambErr.Name != "web" || len(ambErr.Matches) != 2 {
		t.Fatalf("unexpected error detail %+v", ambErr)
	}
}

func TestResolveSingleNothing(t *testing.T) {
	sess := newTestSession(resolverFake(), nil, nil, nil, nil)

	_, err := sess.ResolveSingle(context.Background(), "ghost", "start")
	var nothing *models.NothingToDoError
	if !errors.As(err, &nothing) {
		t.Fatalf("expected NothingToDoError, got %v", err)
	}
	if nothing.Action != "start" {
		t.Fatalf("unexpected action %q", nothing.Action)
	}
}
