// Package mint creates golden files.
//
// A Mint stages the files a test produces in a private temporary directory.
// When the test ends, the Mint either compares every staged file against its
// checked-in golden copy and reports any differences, or, in update mode,
// overwrites the golden copies with the staged ones.
//
//	func TestRender(t *testing.T) {
//		m := mint.NewT(t, "testdata")
//		f, err := m.NewGoldenFile("render.txt")
//		if err != nil {
//			t.Fatal(err)
//		}
//		fmt.Fprint(f, render())
//	}
//
// To update the golden files instead of checking them, run:
//
//	UPDATE_GOLDENFILES=1 go test ./...
//
// REGENERATE_GOLDENFILES=1 is accepted as a deprecated alias.
package mint
