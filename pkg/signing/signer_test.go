package signing

import (
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testKey is the base64url form of the 20-byte secret
// fb ff bf 3e 00 01 02 03 04 05 06 07 08 09 0a 0b 0c 0d 0e ff,
// chosen so its standard base64 form contains both '+' and '/'.
const testKey = "-_-_PgABAgMEBQYHCAkKCwwNDv8="

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestSign_GoldenGeocode(t *testing.T) {
	base := mustParse(t, "http://maps.googleapis.com/maps/api/geocode/json?address=test")

	signed, err := Sign(base, Credentials{Key: testKey, ClientID: "gme-12345"})
	require.NoError(t, err)

	assert.Equal(t,
		"http://maps.googleapis.com/maps/api/geocode/json?address=test&client=gme-12345&signature=sBRwBuFD9pafea_EUgdfxx4sOKE=",
		signed.String())
	assert.True(t, strings.HasSuffix(signed.RawQuery, "&client=gme-12345&signature=sBRwBuFD9pafea_EUgdfxx4sOKE="))
}

func TestSign_GoogleDocumentedExample(t *testing.T) {
	// Example published in the Maps premium plan URL-signing guide.
	base := mustParse(t, "https://maps.googleapis.com/maps/api/geocode/json?address=New+York")
	key, err := DecodeBase64URL("vNIXE0xscrmjlyV-12Nj_BvUPaw=")
	require.NoError(t, err)

	segment := SegmentToSign(base, "clientID")
	assert.Equal(t, "/maps/api/geocode/json?address=New+York&client=clientID", segment)
	assert.Equal(t, "chaRF2hTJKOScPr-RQCEhZbSzIE=", Signature(key, segment))
}

func TestSign_NoClientIDReturnsInputUnchanged(t *testing.T) {
	base := mustParse(t, "https://maps.googleapis.com/maps/api/distancematrix/json?origins=0%2C0&destinations=test&key=abc")

	for _, creds := range []Credentials{{}, {Key: "abc"}, {Key: "   "}} {
		signed, err := Sign(base, creds)
		require.NoError(t, err)
		assert.Same(t, base, signed)
		assert.Equal(t, base.String(), signed.String())
	}
}

func TestSign_InvalidKey(t *testing.T) {
	base := mustParse(t, "https://maps.googleapis.com/maps/api/geocode/json?address=test")

	for _, key := range []string{"", " ", "\t\n"} {
		_, err := Sign(base, Credentials{Key: key, ClientID: "gme-12345"})
		require.Error(t, err)
		assert.Equal(t, "Invalid signing key.", err.Error())
		assert.True(t, errors.Is(err, ErrSigning))

		var sErr *Error
		require.True(t, errors.As(err, &sErr))
		assert.Equal(t, ReasonInvalidKey, sErr.Reason)
	}
}

func TestSign_ClientIDPrefixCheckedRegardlessOfKey(t *testing.T) {
	base := mustParse(t, "https://maps.googleapis.com/maps/api/geocode/json?address=test")

	for _, key := range []string{testKey, "", "not base64 at all"} {
		_, err := Sign(base, Credentials{Key: key, ClientID: "12345"})
		require.Error(t, err, key)
		assert.Equal(t, "A clientId must start with 'gme-'.", err.Error())
		assert.True(t, errors.Is(err, ErrSigning))
	}
}

func TestSign_NilURI(t *testing.T) {
	_, err := Sign(nil, Credentials{Key: testKey, ClientID: "gme-12345"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNilURI)
	assert.ErrorIs(t, err, ErrSigning)

	for _, creds := range []Credentials{{}, {Key: testKey}} {
		u, err := Sign(nil, creds)
		assert.Nil(t, u)
		assert.ErrorIs(t, err, ErrNilURI, "creds %+v", creds)
	}
}

func TestSign_UndecodableKey(t *testing.T) {
	base := mustParse(t, "https://maps.googleapis.com/maps/api/geocode/json?address=test")

	_, err := Sign(base, Credentials{Key: "***", ClientID: "gme-12345"})
	require.Error(t, err)

	var sErr *Error
	require.True(t, errors.As(err, &sErr))
	assert.Equal(t, ReasonUndecodableKey, sErr.Reason)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestSign_Deterministic(t *testing.T) {
	base := mustParse(t, "https://maps.googleapis.com/maps/api/distancematrix/json?sensor=false")
	creds := Credentials{Key: "MDEyMzQ1Njc4OWFiY2RlZmdoaWo=", ClientID: "gme-12345"}

	first, err := Sign(base, creds)
	require.NoError(t, err)
	second, err := Sign(base, creds)
	require.NoError(t, err)

	assert.Equal(t, first.String(), second.String())
	assert.Equal(t,
		"https://maps.googleapis.com/maps/api/distancematrix/json?sensor=false&client=gme-12345&signature=yjuLutO_Qjc95g7etw2Wo4vUdjc=",
		first.String())
}

func TestSign_ConcurrentUse(t *testing.T) {
	base := mustParse(t, "http://maps.googleapis.com/maps/api/geocode/json?address=test")
	creds := Credentials{Key: testKey, ClientID: "gme-12345"}

	var wg sync.WaitGroup
	results := make([]string, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			signed, err := Sign(base, creds)
			if err == nil {
				results[i] = signed.String()
			}
		}(i)
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
	assert.NotEmpty(t, results[0])
}

func TestSign_DoesNotReencodeQuery(t *testing.T) {
	base := mustParse(t, "https://maps.googleapis.com/maps/api/distancematrix/json?origins=0%2C0&destinations=test")

	signed, err := Sign(base, Credentials{Key: "MDEyMzQ1Njc4OWFiY2RlZmdoaWo=", ClientID: "gme-12345"})
	require.NoError(t, err)
	assert.Equal(t, "origins=0%2C0&destinations=test&client=gme-12345&signature=DgFQiwFDcxvj4l2uFxywNTtdSHw=", signed.RawQuery)
}

func TestSign_EmptyQuery(t *testing.T) {
	base := mustParse(t, "https://maps.googleapis.com/maps/api/geocode/json")
	assert.Equal(t, "/maps/api/geocode/json?client=gme-1", SegmentToSign(base, "gme-1"))

	signed, err := Sign(base, Credentials{Key: testKey, ClientID: "gme-1"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(signed.RawQuery, "client=gme-1&signature="))
}

func TestVerify(t *testing.T) {
	base := mustParse(t, "http://maps.googleapis.com/maps/api/geocode/json?address=test")
	signed, err := Sign(base, Credentials{Key: testKey, ClientID: "gme-12345"})
	require.NoError(t, err)

	ok, err := Verify(signed, testKey)
	require.NoError(t, err)
	assert.True(t, ok)

	tampered := mustParse(t, strings.Replace(signed.String(), "address=test", "address=tent", 1))
	ok, err = Verify(tampered, testKey)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = Verify(base, testKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCredentials(t *testing.T) {
	assert.False(t, Credentials{Key: "abc"}.Signed())
	assert.True(t, Credentials{ClientID: "gme-x"}.Signed())
	assert.NoError(t, Credentials{Key: "abc"}.Check())
	assert.ErrorIs(t, Credentials{ClientID: "gme-x"}.Check(), ErrInvalidKey)
	assert.ErrorIs(t, Credentials{ClientID: "x", Key: testKey}.Check(), ErrInvalidClientID)
}
