package frame

// SplitOutgoing is a bufio.SplitFunc over the byte stream the host writes to the
// module. It skips wake bytes and other noise before a sync byte and yields each
// "55 LEN <LEN bytes>" frame whole.
func SplitOutgoing(data []byte, atEOF bool) (advance int, token []byte, err error) {
	start := 0
	for start < len(data) && data[start] != Sync {
		start++
	}
	if start == len(data) {
		return len(data), nil, nil
	}
	if len(data)-start < 2 {
		if atEOF {
			return len(data), nil, nil
		}
		return start, nil, nil
	}

	total := 2 + int(data[start+1])
	if len(data)-start < total {
		if atEOF {
			return len(data), nil, nil
		}
		return start, nil, nil
	}

	return start + total, data[start : start+total], nil
}
