package bulletin

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPage = `長岡市消防本部 災害情報
↓現在発生している災害↓
<span>03月05日 09:15 長岡市 中央一丁目 ○○に建物火災のため消防車が出動しました。</span>
<span>03月05日 08:00 長岡市 千歳一丁目 □□に救助事案のため消防車が出動しました。</span>
↑現在発生している災害↑
（中略）
↓過去の災害経過情報↓
<span>03月04日 23:50 長岡市 旭町二丁目 △△の建物火災は00:10鎮火しました。</span>
↑過去の災害経過情報↑
お問い合わせ先`

func TestNormalize(t *testing.T) {
	assert.Equal(t, "03月05日 09:15 長岡市 中央一丁目", Normalize("03月05日　09:15　長岡市　中央一丁目"))
	assert.Equal(t, "no change", Normalize("no change"))
}

func TestSegment(t *testing.T) {
	t.Run("well-formed page", func(t *testing.T) {
		current, past, err := Segment(testPage)
		require.NoError(t, err)
		assert.Contains(t, current, "09:15 長岡市 中央一丁目")
		assert.Contains(t, current, "08:00 長岡市 千歳一丁目")
		assert.NotContains(t, current, "旭町二丁目")
		assert.Contains(t, past, "23:50 長岡市 旭町二丁目")
	})

	t.Run("missing past close marker", func(t *testing.T) {
		page := `ヘッダ
↓現在発生している災害↓
<span>03月05日 09:15 長岡市 中央一丁目 ○○に建物火災のため消防車が出動しました。</span>
↑現在発生している災害↑
↓過去の災害経過情報↓
フッタ`
		_, _, err := Segment(page)

		var structErr *StructureError
		require.Error(t, err)
		assert.True(t, errors.As(err, &structErr))
	})

	t.Run("empty page", func(t *testing.T) {
		_, _, err := Segment("")
		var structErr *StructureError
		assert.True(t, errors.As(err, &structErr))
	})
}

func TestExtractStatements(t *testing.T) {
	current, _, err := Segment(testPage)
	require.NoError(t, err)

	statements := ExtractStatements(current)
	require.Len(t, statements, 2)
	// Page order: newest first.
	assert.Equal(t, "03月05日 09:15 長岡市 中央一丁目 ○○に建物火災のため消防車が出動しました。", statements[0])
	assert.Equal(t, "03月05日 08:00 長岡市 千歳一丁目 □□に救助事案のため消防車が出動しました。", statements[1])

	assert.Empty(t, ExtractStatements("no spans here"))
}
