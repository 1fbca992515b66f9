package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPermitted(t *testing.T) {
	assert.True(t, (&Response{Status: "Permit"}).Permitted())
	assert.True(t, (&Response{Status: "permit"}).Permitted())
	assert.False(t, (&Response{Status: StatusDeny}).Permitted())
	assert.False(t, (&Response{}).Permitted())

	var none *Response
	assert.False(t, none.Permitted())
}
