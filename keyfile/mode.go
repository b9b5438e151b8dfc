package keyfile

// Mode selects the polarity of stream assembly when a token
// descriptor accompanies a file keyfile.
type Mode int

const (
	// Mount decrypts the leading segment of a file keyfile on read.
	Mount Mode = iota
	// Create encrypts the leading segment of a plaintext keyfile and,
	// when a side-file path is given, writes the ciphertext followed by
	// the rest of the file there, while the returned stream still
	// yields the original plaintext.
	Create
)
