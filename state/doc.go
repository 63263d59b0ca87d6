// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package state manages the storage slots of the pool modules.
// It follows the flow as bellow:
//
//	        o
//	        |
//	[ revertable state ]
//	        |
//	 [ stacked map ] -> [ journal ] -> [ commit (bulk write) ]
//	        |
//	 [ kv store bucket ]
//
// Every operation runs inside a checkpoint. A failed operation reverts to its checkpoint,
// a successful one leaves its writes in the journal until Commit flushes them.
package state
