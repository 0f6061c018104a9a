package courier_test

import (
	"fmt"
	"os"

	"github.com/codahale/courier"
	"github.com/codahale/courier/store/dirstore"
)

func Example() {
	dir, err := os.MkdirTemp("", "courier")
	if err != nil {
		panic(err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	s, err := dirstore.Open(dir)
	if err != nil {
		panic(err)
	}

	ids := courier.NewIdentities(s, nil)
	m := courier.NewMessenger(ids, s, nil)

	// Alice and Bob each register an identity.
	if err := ids.Register("alice", "alice's password"); err != nil {
		panic(err)
	}

	if err := ids.Register("bob", "bob's password"); err != nil {
		panic(err)
	}

	// Alice logs in and sends Bob a message.
	alice, err := ids.Login("alice", "alice's password")
	if err != nil {
		panic(err)
	}
	defer alice.Logout()

	if err := m.Send(alice, "bob", "one two three four I declare a thumb war"); err != nil {
		panic(err)
	}

	// Bob logs in and reads his inbox.
	bob, err := ids.Login("bob", "bob's password")
	if err != nil {
		panic(err)
	}
	defer bob.Logout()

	inbox, err := m.CheckInbox(bob)
	if err != nil {
		panic(err)
	}

	for _, entry := range inbox {
		fmt.Printf("%s (%s): %s\n", entry.Sender, entry.Status, entry.Content)
	}

	// Output:
	// alice (Verified): one two three four I declare a thumb war
}
