package arxivapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"
      xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/"
      xmlns:arxiv="http://arxiv.org/schemas/atom">
  <opensearch:totalResults>2</opensearch:totalResults>
  <opensearch:startIndex>0</opensearch:startIndex>
  <opensearch:itemsPerPage>2</opensearch:itemsPerPage>
  <entry>
    <id>http://arxiv.org/abs/2301.12345v2</id>
    <title>A Paper About
Things</title>
    <summary>  This is the abstract.
It spans lines.  </summary>
    <published>2023-01-30T18:00:00Z</published>
    <author><name>Ada Lovelace</name></author>
    <author><name>Alan Turing</name></author>
    <arxiv:primary_category term="math.AG"/>
    <arxiv:comment>12 pages, 3 figures</arxiv:comment>
    <category term="math.AG"/>
    <category term="cs.LO"/>
  </entry>
  <entry>
    <id>http://arxiv.org/abs/2302.00001</id>
    <title>Second Paper</title>
    <summary>Short abstract.</summary>
    <author><name>Grace Hopper</name></author>
  </entry>
</feed>`

func TestParseFeedExtractsEntries(t *testing.T) {
	result, err := parseFeed([]byte(sampleFeed))
	require.NoError(t, err)
	assert.Equal(t, 2, result.TotalResults)
	require.Len(t, result.Entries, 2)

	first := result.Entries[0]
	assert.Equal(t, "2301.12345v2", first.ArxivID)
	assert.Equal(t, "A Paper About Things", first.Title)
	assert.Equal(t, "This is the abstract. It spans lines.", first.Abstract)
	assert.Equal(t, []string{"Ada Lovelace", "Alan Turing"}, first.Authors)
	assert.Equal(t, "math.AG", first.PrimaryCategory)
	assert.Equal(t, "12 pages, 3 figures", first.Comment)
	assert.Equal(t, []string{"math.AG", "cs.LO"}, first.Categories)
	assert.Equal(t, "2023-01-30T18:00:00Z", first.Published)

	second := result.Entries[1]
	assert.Equal(t, "2302.00001", second.ArxivID)
	assert.Empty(t, second.PrimaryCategory)
	assert.Empty(t, second.Categories)
}

func TestParseFeedNoResults(t *testing.T) {
	const empty = `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/">
  <opensearch:totalResults>0</opensearch:totalResults>
</feed>`
	result, err := parseFeed([]byte(empty))
	require.NoError(t, err)
	assert.Equal(t, 0, result.TotalResults)
	assert.Empty(t, result.Entries)
}

func TestParseFeedMalformedXML(t *testing.T) {
	_, err := parseFeed([]byte("<not-xml"))
	require.Error(t, err)
}

func TestParseFeedSkipsEntryWithoutExtractableID(t *testing.T) {
	const badID = `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/">
  <opensearch:totalResults>1</opensearch:totalResults>
  <entry>
    <id></id>
    <title>No ID Paper</title>
  </entry>
</feed>`
	result, err := parseFeed([]byte(badID))
	require.NoError(t, err)
	assert.Empty(t, result.Entries)
}

func TestNormalizeWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", normalizeWhitespace("  a\nb\nc  "))
}
