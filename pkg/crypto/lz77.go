package crypto

// LZ77Compress は UNLZ77 で展開できる形式にデータを圧縮します。
// 直前のバイトと2バイトハッシュの直近位置だけを候補にする貪欲法です。
func LZ77Compress(src []byte) []byte {
	out := make([]byte, 0, len(src)+len(src)/8+4)
	head := make([]int32, 1<<16) // 2バイトハッシュ → 直近の位置+1
	dictPos := 1
	tagPos := 0
	bit := 8

	token := func(ref bool) {
		if bit == 8 {
			tagPos = len(out)
			out = append(out, 0)
			bit = 0
		}
		if ref {
			out[tagPos] |= 1 << bit
		}
		bit++
	}
	insert := func(p int) {
		if p+1 < len(src) {
			head[int(src[p])|int(src[p+1])<<8] = int32(p + 1)
		}
	}

	for i := 0; i < len(src); {
		bestLen, bestOfs := 0, 0
		candidates := [2]int{1, 0}
		if i+1 < len(src) {
			if j := int(head[int(src[i])|int(src[i+1])<<8]) - 1; j >= 0 {
				candidates[1] = i - j
			}
		}
		for _, d := range candidates {
			if d <= 0 || d > i || d >= WindowSize {
				continue
			}
			ofs := (dictPos - d) & windowMask
			if ofs == 0 {
				continue // 0 は終端マーカー
			}
			n := 0
			for n < maxMatch && i+n < len(src) && src[i+n] == src[i+n-d] {
				n++
			}
			if n > bestLen {
				bestLen, bestOfs = n, ofs
			}
		}

		if bestLen >= minMatch {
			token(true)
			out = append(out, byte(bestOfs<<4|(bestLen-minMatch)), byte(bestOfs>>4))
		} else {
			bestLen = 1
			token(false)
			out = append(out, src[i])
		}
		for k := 0; k < bestLen; k++ {
			insert(i + k)
		}
		dictPos = (dictPos + bestLen) & windowMask
		i += bestLen
	}

	token(true)
	out = append(out, 0, 0)
	return out
}
