//go:build !ocr

package ocr

// Client is the stand-in used when OCR is not compiled in.
type Client struct{}

// New always fails with ErrOCRNotEnabled.
func New(languages string) (*Client, error) {
	return nil, ErrOCRNotEnabled
}

// Close is safe on a nil client.
func (c *Client) Close() error { return nil }

func (c *Client) Recognize(image []byte) (string, error) {
	return "", ErrOCRNotEnabled
}
