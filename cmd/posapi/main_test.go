package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/posapp/pos-backend/internal/app"
	_ "github.com/posapp/pos-backend/testing"
)

func TestMainReturnsInTestMode(t *testing.T) {
	app.RefreshTestMode()
	assert.True(t, app.InTestMode())
	assert.NotPanics(t, main)
}
