package internal

import "testing"

func TestIsTypedNil(t *testing.T) {
	var (
		nilPtr   *int
		nilSlice []byte
		nilMap   map[int]int
		nilFunc  func() error
		nilChan  chan struct{}
	)

	cases := []struct {
		name string
		val  any
		want bool
	}{
		{name: "untyped_nil", val: nil, want: true},
		{name: "nil_pointer", val: nilPtr, want: true},
		{name: "nil_slice", val: nilSlice, want: true},
		{name: "nil_map", val: nilMap, want: true},
		{name: "nil_func", val: nilFunc, want: true},
		{name: "nil_chan", val: nilChan, want: true},
		{name: "live_pointer", val: new(int), want: false},
		{name: "plain_int", val: 7, want: false},
		{name: "plain_string", val: "boom", want: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsTypedNil(tc.val); got != tc.want {
				t.Fatalf("IsTypedNil(%s)=%v, want %v", tc.name, got, tc.want)
			}
		})
	}
}
