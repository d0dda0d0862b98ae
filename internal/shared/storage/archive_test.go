package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObjectName(t *testing.T) {
	at := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	name := ObjectName("materials", "../uploads/stock.xlsx", at)

	assert.True(t, strings.HasPrefix(name, "materials/2026/10/19/"), name)
	assert.True(t, strings.HasSuffix(name, "_stock.xlsx"), name)
	assert.NotContains(t, name, "..")
}
