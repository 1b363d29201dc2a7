package database_test

import (
	"github.com/doniyorcoin/ledger/foundation/blockchain/database"
	"github.com/doniyorcoin/ledger/foundation/blockchain/signature"
)

// Reference values for a fixed pair of private keys and a fixed chain.
const (
	senderKey     = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"
	senderPubKey  = "630dcd2966c4336691125448bbb25b4ff412a49c732db2c8abc1b8581bd710dd"
	senderAddr    = "b477624674bd0de2085b798e85e717ae36be0bb82de4e6c1adc480655701cf76"
	recipientKey  = "202122232425262728292a2b2c2d2e2f303132333435363738393a3b3c3d3e3f"
	recipientAddr = "dd787b4f03ab819ab3bc528c328e4e305153aa70fdcc73e22b43a388120e2ed1"
	transferTag   = "57e46a05afd8fdb34564ff9472589cddd0eaf02d639ddd0bc0285ed0c689cc49"

	genesisHash = "012e95c9af4d56d81785e4dd340dd4bb8a23399c4e4898013be2c0e01d0c98e1"
	block1Hash  = "750a9229047bb5adff1822f1926d750d6d1f94f85409b1a6fb7fa6c5d70ca6b3"
	block1Nonce = 30
	block1Mined = "00342c2cb6fbe375185b3c3c6c743f2376ac5b13f2d35e84b5e72a6af2d70e0d"
)

func transfer() database.Tx {
	return database.Tx{
		ToID:      recipientAddr,
		Value:     10.5,
		TimeStamp: 1700000000.25,
	}
}

func signedTransfer() database.Tx {
	tx, err := transfer().Sign(senderKey)
	if err != nil {
		panic(err)
	}
	return tx
}

func genesis() database.Block {
	b := database.Block{
		Number:        0,
		TimeStamp:     1700000000.0,
		PrevBlockHash: signature.ZeroHash,
	}
	b.Hash = b.CalculateHash()
	return b
}

func block1() database.Block {
	reward := database.Tx{
		ToID:      senderAddr,
		Value:     50.0,
		TimeStamp: 1700000100.75,
	}

	b := database.Block{
		Number:        1,
		TimeStamp:     1700000100.5,
		Transactions:  []database.Tx{signedTransfer(), reward},
		PrevBlockHash: genesisHash,
	}
	b.Hash = b.CalculateHash()
	return b
}
