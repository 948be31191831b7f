package wcbridge

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"moff.io/moff-wallet/pkg/errors"
)

var (
	ErrInvalidHmac    = errors.New("inconsistent message hmac")
	ErrInvalidPadding = errors.New("invalid pkcs7 padding")
)

// KeySize is the length of the symmetric session key shared through the pairing URI.
const KeySize = 256 / 8

// Payload is the encrypted JSON-RPC envelope carried inside bridge messages.
type Payload struct {
	Data string `json:"data"`
	Hmac string `json:"hmac"`
	IV   string `json:"iv"`
}

func (p *Payload) Marshal() string {
	s, _ := json.Marshal(p)
	return string(s)
}

func ParsePayload(data []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrap(err, "unmarshal wallet connect message payload")
	}
	return &p, nil
}

// Seal encrypts plain with a fresh IV and signs cipher||iv.
func Seal(plain, key []byte) (*Payload, error) {
	iv, err := GenerateRandomBytes(aes.BlockSize)
	if err != nil {
		return nil, errors.Wrap(err, "generate random bytes")
	}
	data, err := Aes256Encrypt(plain, key, iv)
	if err != nil {
		return nil, err
	}
	unsigned := append(append([]byte{}, data...), iv...)
	return &Payload{
		Data: hex.EncodeToString(data),
		IV:   hex.EncodeToString(iv),
		Hmac: hex.EncodeToString(HmacSha256(unsigned, key)),
	}, nil
}

// Open checks the hmac and decrypts the payload.
func Open(p *Payload, key []byte) ([]byte, error) {
	iv, err := hex.DecodeString(p.IV)
	if err != nil {
		return nil, errors.Wrap(err, "decode iv hex")
	}
	data, err := hex.DecodeString(p.Data)
	if err != nil {
		return nil, errors.Wrap(err, "decode cipher hex")
	}
	mac, err := hex.DecodeString(p.Hmac)
	if err != nil {
		return nil, errors.Wrap(err, "decode hmac hex")
	}
	unsigned := append(append([]byte{}, data...), iv...)
	if !hmac.Equal(mac, HmacSha256(unsigned, key)) {
		return nil, ErrInvalidHmac
	}
	return Aes256Decrypt(data, key, iv)
}

func Aes256Encrypt(content, encryptionKey, iv []byte) ([]byte, error) {
	bPlaintext := pkcs7Padding(content, aes.BlockSize)
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, errors.Wrap(err, "create new cipher block")
	}
	ciphertext := make([]byte, len(bPlaintext))
	mode := cipher.NewCBCEncrypter(block, iv)
	mode.CryptBlocks(ciphertext, bPlaintext)
	return ciphertext, nil
}

func Aes256Decrypt(cipherText, encryptionKey, iv []byte) ([]byte, error) {
	block, err := aes.NewCipher(encryptionKey)
	if err != nil {
		return nil, errors.Wrap(err, "create new cipher block")
	}
	if len(iv) != aes.BlockSize || len(cipherText) == 0 || len(cipherText)%aes.BlockSize != 0 {
		return nil, ErrInvalidPadding
	}
	plain := make([]byte, len(cipherText))
	mode := cipher.NewCBCDecrypter(block, iv)
	mode.CryptBlocks(plain, cipherText)
	return pkcs7Unpadding(plain, aes.BlockSize)
}

func pkcs7Padding(plain []byte, blockSize int) []byte {
	padding := blockSize - len(plain)%blockSize
	padText := bytes.Repeat([]byte{byte(padding)}, padding)
	return append(append([]byte{}, plain...), padText...)
}

func pkcs7Unpadding(plain []byte, blockSize int) ([]byte, error) {
	n := len(plain)
	if n == 0 {
		return nil, ErrInvalidPadding
	}
	padding := int(plain[n-1])
	if padding == 0 || padding > blockSize || padding > n {
		return nil, ErrInvalidPadding
	}
	for _, b := range plain[n-padding:] {
		if int(b) != padding {
			return nil, ErrInvalidPadding
		}
	}
	return plain[:n-padding], nil
}

func GenerateRandomBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func HmacSha256(data, secret []byte) []byte {
	h := hmac.New(sha256.New, secret)
	h.Write(data)
	return h.Sum(nil)
}
