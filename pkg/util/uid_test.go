package util_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sliceview/sliceview.go/pkg/util"
)

func TestGenerateUID(t *testing.T) {
	uid := util.GenerateUID("1.2.3")
	assert.True(t, strings.HasPrefix(uid, "1.2.3."))
	assert.NotContains(t, uid, "..")

	withDot := util.GenerateUID("1.2.3.")
	assert.True(t, strings.HasPrefix(withDot, "1.2.3."))
	assert.NotContains(t, withDot, "..")

	def := util.GenerateUID("")
	assert.True(t, strings.HasPrefix(def, util.UIDRoot+"."))

	a := util.GenerateUID("1.2.3")
	b := util.GenerateUID("1.2.3")
	assert.NotEqual(t, a, b, "consecutive UIDs differ")
}

func TestMd5ThenHex(t *testing.T) {
	// md5("") is the classic fixed digest.
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", util.Md5ThenHex(nil))
	assert.Len(t, util.Md5ThenHex([]byte("abc")), 32)
}

func TestHashUUID(t *testing.T) {
	type key struct {
		Path string
		Rows int
	}
	a := util.HashUUID(key{Path: "/scans/a.dcm", Rows: 512})
	b := util.HashUUID(key{Path: "/scans/a.dcm", Rows: 512})
	c := util.HashUUID(key{Path: "/scans/b.dcm", Rows: 512})

	require.NotEmpty(t, a)
	assert.Equal(t, a, b, "same value hashes to the same identity")
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 36, "canonical uuid text form")

	assert.Equal(t, "", util.HashUUID(make(chan int)), "unencodable values yield empty")
}
