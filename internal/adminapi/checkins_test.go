package adminapi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fongpn/fmfalorsetar-sub000/internal/checkin"
)

func TestDispatchCheckinRejectsUnknownKind(t *testing.T) {
	res, err := dispatchCheckin(context.Background(), nil, checkinPayload{Kind: "BIOMETRIC"}, 1, 1)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, checkin.ErrUnknownCheckinKind)
}
