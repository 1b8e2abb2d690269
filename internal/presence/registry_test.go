package presence_test

import (
	"fmt"
	"sort"
	"sync"
	"testing"

	"github.com/connectohq/connecto/internal/presence"
)

func TestJoinAndMembers(t *testing.T) {
	t.Parallel()
	r := presence.NewRegistry()

	r.Join("conn-a", 1)
	r.Join("conn-b", 1)
	r.Join("conn-a", 2)

	members := r.MembersOf(1)
	sort.Strings(members)
	if len(members) != 2 || members[0] != "conn-a" || members[1] != "conn-b" {
		t.Fatalf("MembersOf(1) = %v, want [conn-a conn-b]", members)
	}
	if got := r.MembersOf(2); len(got) != 1 || got[0] != "conn-a" {
		t.Fatalf("MembersOf(2) = %v, want [conn-a]", got)
	}
	if got := r.MembersOf(99); len(got) != 0 {
		t.Fatalf("MembersOf(99) = %v, want empty", got)
	}
}

func TestJoin_Idempotent(t *testing.T) {
	t.Parallel()
	r := presence.NewRegistry()

	r.Join("conn-a", 1)
	r.Join("conn-a", 1)

	if got := r.MembersOf(1); len(got) != 1 {
		t.Fatalf("MembersOf(1) after double join = %v, want single entry", got)
	}
	if got := r.ThreadsOf("conn-a"); len(got) != 1 || got[0] != 1 {
		t.Fatalf("ThreadsOf(conn-a) = %v, want [1]", got)
	}
}

func TestJoin_EmptyConnID(t *testing.T) {
	t.Parallel()
	r := presence.NewRegistry()

	r.Join("", 1)
	if got := r.MembersOf(1); len(got) != 0 {
		t.Fatalf("MembersOf(1) after empty-id join = %v, want empty", got)
	}
}

func TestLeave(t *testing.T) {
	t.Parallel()
	r := presence.NewRegistry()

	r.Join("conn-a", 1)
	r.Join("conn-b", 1)
	r.Leave("conn-a", 1)

	if got := r.MembersOf(1); len(got) != 1 || got[0] != "conn-b" {
		t.Fatalf("MembersOf(1) after leave = %v, want [conn-b]", got)
	}
	if got := r.ThreadsOf("conn-a"); len(got) != 0 {
		t.Fatalf("ThreadsOf(conn-a) after leave = %v, want empty", got)
	}

	// Leaving again, or leaving a thread never joined, is a no-op.
	r.Leave("conn-a", 1)
	r.Leave("conn-c", 5)
}

func TestDrop_PurgesAllMemberships(t *testing.T) {
	t.Parallel()
	r := presence.NewRegistry()

	r.Join("conn-a", 1)
	r.Join("conn-a", 2)
	r.Join("conn-a", 3)
	r.Join("conn-b", 2)

	r.Drop("conn-a")

	if got := r.ThreadsOf("conn-a"); len(got) != 0 {
		t.Fatalf("ThreadsOf(conn-a) after drop = %v, want empty", got)
	}
	for _, threadID := range []int64{1, 3} {
		if got := r.MembersOf(threadID); len(got) != 0 {
			t.Fatalf("MembersOf(%d) after drop = %v, want empty", threadID, got)
		}
	}
	if got := r.MembersOf(2); len(got) != 1 || got[0] != "conn-b" {
		t.Fatalf("MembersOf(2) after drop = %v, want [conn-b]", got)
	}
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	t.Parallel()
	r := presence.NewRegistry()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			connID := fmt.Sprintf("conn-%d", i)
			threadID := int64(i % 4)
			r.Join(connID, threadID)
			r.MembersOf(threadID)
			r.ThreadsOf(connID)
			if i%2 == 0 {
				r.Leave(connID, threadID)
			} else {
				r.Drop(connID)
			}
		}(i)
	}
	wg.Wait()

	for threadID := int64(0); threadID < 4; threadID++ {
		if got := r.MembersOf(threadID); len(got) != 0 {
			t.Fatalf("MembersOf(%d) after teardown = %v, want empty", threadID, got)
		}
	}
}
