package areas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestName_EpisodeI(t *testing.T) {
	assert.Equal(t, "Pioneer 2", Name(EpisodeI, 0))
	assert.Equal(t, "Forest", Name(EpisodeI, 1))
	assert.Equal(t, "Forest", Name(EpisodeI, 2))
	assert.Equal(t, "Caves", Name(EpisodeI, 4))
	assert.Equal(t, "Mines", Name(EpisodeI, 7))
	assert.Equal(t, "Ruins", Name(EpisodeI, 10))
	assert.Equal(t, "Under the Dome", Name(EpisodeI, 11))
	assert.Equal(t, "Unknown", Name(EpisodeI, 14))
	assert.Equal(t, "VR Temple α", Name(EpisodeI, 17))
}

func TestName_EpisodeII(t *testing.T) {
	assert.Equal(t, "Lab", Name(EpisodeII, 0))
	assert.Equal(t, "VR Temple β", Name(EpisodeII, 2))
	assert.Equal(t, "Jungle North", Name(EpisodeII, 6))
	assert.Equal(t, "Jungle East", Name(EpisodeII, 7))
	assert.Equal(t, "Seabed Upper", Name(EpisodeII, 10))
	assert.Equal(t, "Seabed Lower", Name(EpisodeII, 11))
	assert.Equal(t, "Control Tower", Name(EpisodeII, 17))
	assert.Equal(t, "Unknown", Name(EpisodeII, 99))
}
