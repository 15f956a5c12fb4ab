package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, []string{"Name", "Access"}, [][]Field{
		{Q("Ana"), Raw("Granted")},
		{Q(`Ben "B" Cruz`), Raw("Denied")},
		{Q(""), Raw("")},
	})
	require.NoError(t, err)
	assert.Equal(t, "Name,Access\n\"Ana\",Granted\n\"Ben \"\"B\"\" Cruz\",Denied\n\"\",", buf.String())
}

func TestFilename(t *testing.T) {
	day := time.Date(2026, time.March, 4, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "HapsayHub_Attendees_2026-03-04.csv", Filename("HapsayHub_Attendees", day))
}
